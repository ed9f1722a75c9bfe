package usecase

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"scenably/internal/config"
	"scenably/internal/entity"
	"scenably/internal/ports"
	"scenably/internal/usecase/adapters"
)

type Service struct {
	Recorder  adapters.RecorderService
	Debugger  adapters.DebuggerService
	Executor  adapters.ExecutorService
	Provision adapters.ProvisionService
}

type Params struct {
	fx.In

	Logger      *zap.Logger
	Config      *config.Config
	Recorder    ports.Recorder
	Debugger    ports.Debugger
	Executor    ports.Executor
	Provisioner ports.Provisioner
}

func NewUsecase(params Params) *Service {
	factory := newServiceFactory(params)

	return &Service{
		Recorder:  factory.CreateRecorderService(),
		Debugger:  factory.CreateDebuggerService(),
		Executor:  factory.CreateExecutorService(),
		Provision: factory.CreateProvisionService(),
	}
}

// StartRecording wraps the orchestrator call into the result shape the
// dispatch boundary expects: failures become data, never panics.
func (s *Service) StartRecording(ctx context.Context, url, sessionID string) entity.Result {
	resp, err := s.Recorder.Start(ctx, url, sessionID)

	return toResult(resp, err)
}

func (s *Service) StopRecording(ctx context.Context, sessionID string) entity.Result {
	resp, err := s.Recorder.Stop(ctx, sessionID)

	return toResult(resp, err)
}

func (s *Service) Debug(ctx context.Context, code, sessionID string) entity.Result {
	resp, err := s.Debugger.StartDebugSession(ctx, code, sessionID)

	return toResult(resp, err)
}

func (s *Service) Execute(ctx context.Context, executionID, scenarioID, code string, onComplete func(entity.ExecutionStatus)) entity.Result {
	err := s.Executor.ExecuteInBackground(ctx, executionID, scenarioID, code, onComplete)

	return toResult(map[string]string{"executionId": executionID}, err)
}

func toResult(data any, err error) entity.Result {
	if err != nil {
		return entity.Result{Success: false, Error: err.Error()}
	}

	return entity.Result{Success: true, Data: data}
}
