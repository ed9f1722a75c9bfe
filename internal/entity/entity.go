package entity

import (
	"sync/atomic"
	"time"
)

type ActivityKind string

const (
	ActivityRecord  ActivityKind = "record"
	ActivityDebug   ActivityKind = "debug"
	ActivityExecute ActivityKind = "execute"
)

type SessionStatus string

const (
	SessionStarting  SessionStatus = "starting"
	SessionRecording SessionStatus = "recording"
	SessionRunning   SessionStatus = "running"
	SessionStopping  SessionStatus = "stopping"
	SessionCompleted SessionStatus = "completed"
	SessionError     SessionStatus = "error"
)

func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionError
}

type Session struct {
	ID         string
	Kind       ActivityKind
	Status     SessionStatus
	URL        string
	SpecPath   string
	ConfigPath string
	OutputPath string
	PID        int
	StartedAt  time.Time

	cleaned atomic.Bool
}

// BeginCleanup reports whether the caller won the right to delete this
// session's temp files. Subsequent calls return false.
func (s *Session) BeginCleanup() bool {
	return s.cleaned.CompareAndSwap(false, true)
}

func (s *Session) TempPaths() []string {
	paths := make([]string, 0, 2)

	if s.SpecPath != "" {
		paths = append(paths, s.SpecPath)
	}

	if s.ConfigPath != "" {
		paths = append(paths, s.ConfigPath)
	}

	return paths
}

type ProcessExit struct {
	Code int
	Err  error
}

func (e ProcessExit) Success() bool {
	return e.Err == nil && e.Code == 0
}

type ExecutionStatus string

const (
	ExecutionSuccess ExecutionStatus = "SUCCESS"
	ExecutionFailure ExecutionStatus = "FAILURE"
)

type ExecutionUpdate struct {
	Status      ExecutionStatus
	Result      string
	CompletedAt time.Time
}

type ExecutionOutcome struct {
	ExitCode int    `json:"exitCode"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

type ExecutionError struct {
	Error string `json:"error"`
}

type ExecutionEvent struct {
	ExecutionID string          `json:"executionId"`
	ScenarioID  string          `json:"scenarioId"`
	Status      ExecutionStatus `json:"status"`
	Result      string          `json:"result"`
}

type StartResponse struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type StopResponse struct {
	SessionID string `json:"sessionId"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

type DebugResult struct {
	SessionID string `json:"sessionId"`
	Success   bool   `json:"success"`
	ExitCode  int    `json:"exitCode"`
	Stdout    string `json:"stdout"`
	Stderr    string `json:"stderr"`
}

type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type CodeShape string

const (
	CodeTestShaped    CodeShape = "test"
	CodeCodegenShaped CodeShape = "codegen"
	CodeUnknown       CodeShape = "unknown"
)
