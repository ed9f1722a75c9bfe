package ports

import (
	"context"
	"io"

	"scenably/internal/entity"
)

type Command struct {
	Path string
	Args []string
	Dir  string
	Env  []string
}

type Process interface {
	PID() int
	Stdout() io.Reader
	Stderr() io.Reader
	Wait() (int, error)
	Terminate() error
	Kill() error
}

type CommandRunner interface {
	Start(cmd Command) (Process, error)
}

type ProcessHandle interface {
	PID() int
	Done() <-chan struct{}
	Exit() entity.ProcessExit
	Stdout() string
	Stderr() string
	Terminate() error
	Kill() error
}

type ResultStore interface {
	UpdateExecution(ctx context.Context, executionID string, update entity.ExecutionUpdate) error
}

type Notifier interface {
	ExecutionCompleted(event entity.ExecutionEvent)
}

type Recorder interface {
	Start(ctx context.Context, url, sessionID string) (*entity.StartResponse, error)
	Stop(ctx context.Context, sessionID string) (*entity.StopResponse, error)
	ActiveSessions() []*entity.Session
}

type Debugger interface {
	StartDebugSession(ctx context.Context, code, sessionID string) (*entity.DebugResult, error)
	StopDebugSession(ctx context.Context, sessionID string) error
	ActiveSessions() []*entity.Session
}

type Executor interface {
	ExecuteInBackground(ctx context.Context, executionID, scenarioID, code string, onComplete func(entity.ExecutionStatus)) error
	ActiveSessions() []*entity.Session
}

type Provisioner interface {
	Install(ctx context.Context) error
}
