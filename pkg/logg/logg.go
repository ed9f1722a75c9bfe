package logg

const (
	Layer     = "layer"
	Operation = "operation"

	SessionID   = "session_id"
	ExecutionID = "execution_id"
	ScenarioID  = "scenario_id"
	Kind        = "kind"
	URL         = "url"
	Path        = "path"
	PID         = "pid"
	ExitCode    = "exit_code"
)
