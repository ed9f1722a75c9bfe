package adapters

import (
	"context"

	"scenably/internal/entity"
)

type RecorderService interface {
	Start(ctx context.Context, url, sessionID string) (*entity.StartResponse, error)
	Stop(ctx context.Context, sessionID string) (*entity.StopResponse, error)
	ActiveSessions() []*entity.Session
}

type DebuggerService interface {
	StartDebugSession(ctx context.Context, code, sessionID string) (*entity.DebugResult, error)
	StopDebugSession(ctx context.Context, sessionID string) error
	ActiveSessions() []*entity.Session
}

type ExecutorService interface {
	ExecuteInBackground(ctx context.Context, executionID, scenarioID, code string, onComplete func(entity.ExecutionStatus)) error
	ActiveSessions() []*entity.Session
}

type ProvisionService interface {
	Install(ctx context.Context) error
}
