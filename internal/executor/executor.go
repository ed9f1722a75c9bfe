package executor

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"

	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"scenably/internal/config"
	"scenably/internal/entity"
	"scenably/internal/locator"
	"scenably/internal/proc"
	"scenably/internal/ports"
	"scenably/internal/script"
	"scenably/internal/session"
	"scenably/pkg/apperr"
	"scenably/pkg/logg"
	"scenably/pkg/tracing"
)

const (
	executorName   = "ExecutorService"
	executorTracer = "executor.service"
)

// Service runs scenarios headlessly in the background, typically for
// scheduled executions. Completion is reported as data through the
// result store and notifier, never as a thrown error: once the process
// is running there is no synchronous caller left to throw to.
type Service struct {
	config     *config.Config
	logger     *zap.Logger
	tracer     trace.Tracer
	clock      clock.Clock
	store      *session.Store
	locator    *locator.Locator
	supervisor *proc.Supervisor
	files      *script.Materializer
	results    ports.ResultStore
	notifier   ports.Notifier
	slots      *semaphore.Weighted
}

type Params struct {
	fx.In

	Config       *config.Config
	Logger       *zap.Logger
	Clock        clock.Clock
	Store        *session.Store
	Locator      *locator.Locator
	Supervisor   *proc.Supervisor
	Materializer *script.Materializer
	Results      ports.ResultStore
	Notifier     ports.Notifier
}

func NewService(params Params) *Service {
	maxExecs := params.Config.ProcessConfig.MaxConcurrentExecs
	if maxExecs < 1 {
		maxExecs = 1
	}

	return &Service{
		config:     params.Config,
		logger:     params.Logger.With(zap.String(logg.Layer, executorName)),
		tracer:     otel.Tracer(executorTracer),
		clock:      params.Clock,
		store:      params.Store,
		locator:    params.Locator,
		supervisor: params.Supervisor,
		files:      params.Materializer,
		results:    params.Results,
		notifier:   params.Notifier,
		slots:      semaphore.NewWeighted(maxExecs),
	}
}

// ExecuteInBackground is fire-and-forget: precondition violations are
// returned synchronously, everything after a session exists resolves
// through the result store, the notifier, and onComplete. A spawn
// failure is recorded as FAILURE exactly like a nonzero exit.
func (s *Service) ExecuteInBackground(ctx context.Context, executionID, scenarioID, code string, onComplete func(entity.ExecutionStatus)) (err error) {
	const op = "ExecuteInBackground"
	logger := s.logger.With(
		zap.String(logg.Operation, op),
		zap.String(logg.ExecutionID, executionID),
		zap.String(logg.ScenarioID, scenarioID),
	)

	_, step := tracing.StartSpan(ctx, s.tracer, logger, op,
		attribute.String("execution_id", executionID),
		attribute.String("scenario_id", scenarioID))
	defer func() {
		step.End(err)
	}()

	if executionID == "" {
		return apperr.InvalidReqError(op, "execution_id", errors.New("execution id cannot be empty"))
	}

	normalized, err := script.Normalize(code)
	if err != nil {
		return err
	}

	if !s.slots.TryAcquire(1) {
		return apperr.WrapErrorWithReason(op, apperr.CodeLimitReached, "too_many_concurrent_executions")
	}

	sess := &entity.Session{
		ID:        executionID,
		Kind:      entity.ActivityExecute,
		Status:    entity.SessionStarting,
		StartedAt: s.clock.Now(),
	}

	if err = s.store.Put(sess); err != nil {
		s.slots.Release(1)

		return err
	}

	chromium := s.locator.AvailableChromiumExecutable()

	specPath, configPath, err := s.files.WriteRunFiles(entity.ActivityExecute, executionID, normalized, script.RunOptions{
		Browser:        s.config.ProcessConfig.Browser,
		Headless:       true,
		ExecutablePath: chromium,
	})
	if err != nil {
		s.store.Remove(executionID)
		s.slots.Release(1)

		return err
	}

	sess.SpecPath = specPath
	sess.ConfigPath = configPath
	step.AddEvent("run files written")

	binary := s.locator.FindPlaywrightBinary()

	h, launchErr := s.supervisor.Launch(proc.LaunchSpec{
		SessionID:  executionID,
		Kind:       entity.ActivityExecute,
		Binary:     binary,
		Subcommand: "test",
		Args: []string{
			"--config=" + filepath.Base(configPath),
			filepath.Base(specPath),
		},
		Dir:          filepath.Dir(specPath),
		BrowsersPath: s.locator.BrowserPath(),
	})
	if launchErr != nil {
		logger.Warn("Spawn failed, recording FAILURE", zap.Error(launchErr))
		step.AddEvent("spawn failed")

		result, _ := json.Marshal(entity.ExecutionError{Error: launchErr.Error()})
		s.complete(sess, scenarioID, entity.ExecutionFailure, string(result), onComplete)

		return nil
	}

	_ = s.store.Attach(executionID, h, entity.SessionRunning)
	step.AddEvent("process running")

	go s.awaitCompletion(sess, scenarioID, h, onComplete)

	return nil
}

func (s *Service) awaitCompletion(sess *entity.Session, scenarioID string, h ports.ProcessHandle, onComplete func(entity.ExecutionStatus)) {
	<-h.Done()
	exit := h.Exit()

	status := entity.ExecutionSuccess
	if !exit.Success() {
		status = entity.ExecutionFailure
	}

	result, _ := json.Marshal(entity.ExecutionOutcome{
		ExitCode: exit.Code,
		Stdout:   h.Stdout(),
		Stderr:   h.Stderr(),
	})

	s.complete(sess, scenarioID, status, string(result), onComplete)
}

// complete performs the single terminal transition for an execution:
// temp cleanup, store removal, persistence, notification, callback.
func (s *Service) complete(sess *entity.Session, scenarioID string, status entity.ExecutionStatus, result string, onComplete func(entity.ExecutionStatus)) {
	logger := s.logger.With(
		zap.String(logg.ExecutionID, sess.ID),
		zap.String(logg.ScenarioID, scenarioID),
	)

	if sess.BeginCleanup() {
		s.files.Cleanup(sess.TempPaths()...)
	}

	terminal := entity.SessionCompleted
	if status == entity.ExecutionFailure {
		terminal = entity.SessionError
	}

	_ = s.store.UpdateStatus(sess.ID, terminal)
	s.store.Remove(sess.ID)
	s.slots.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ProcessConfig.StopGracePeriod)
	defer cancel()

	if err := s.results.UpdateExecution(ctx, sess.ID, entity.ExecutionUpdate{
		Status:      status,
		Result:      result,
		CompletedAt: s.clock.Now(),
	}); err != nil {
		// Persistence is not allowed to break the state machine.
		logger.Warn("Execution result persistence failed", zap.Error(err))
	}

	s.notifier.ExecutionCompleted(entity.ExecutionEvent{
		ExecutionID: sess.ID,
		ScenarioID:  scenarioID,
		Status:      status,
		Result:      result,
	})

	if onComplete != nil {
		onComplete(status)
	}

	logger.Info("Execution finished", zap.String("status", string(status)))
}

func (s *Service) ActiveSessions() []*entity.Session {
	return s.store.Active(entity.ActivityExecute)
}
