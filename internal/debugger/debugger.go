package debugger

import (
	"context"
	"path/filepath"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"scenably/internal/config"
	"scenably/internal/entity"
	"scenably/internal/locator"
	"scenably/internal/proc"
	"scenably/internal/script"
	"scenably/internal/session"
	"scenably/pkg/logg"
	"scenably/pkg/tracing"
)

const (
	debuggerName   = "DebuggerService"
	debuggerTracer = "debugger.service"
)

// Service runs test code under the CLI's interactive --debug mode. A
// human drives the step-through session, so unlike the other
// orchestrators StartDebugSession blocks until the process closes.
type Service struct {
	config     *config.Config
	logger     *zap.Logger
	tracer     trace.Tracer
	clock      clock.Clock
	store      *session.Store
	locator    *locator.Locator
	supervisor *proc.Supervisor
	files      *script.Materializer
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
}

func NewService(params Params) *Service {
	return &Service{
		config:     params.Config,
		logger:     params.Logger.With(zap.String(logg.Layer, debuggerName)),
		tracer:     otel.Tracer(debuggerTracer),
		clock:      params.Clock,
		store:      params.Store,
		locator:    params.Locator,
		supervisor: params.Supervisor,
		files:      params.Materializer,
	}
}

func (s *Service) StartDebugSession(ctx context.Context, code, sessionID string) (result *entity.DebugResult, err error) {
	const op = "StartDebugSession"
	logger := s.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op,
		attribute.String("session_id", sessionID))
	defer func() {
		step.End(err)
	}()

	// Validation happens before any file or process side effect.
	normalized, err := script.Normalize(code)
	if err != nil {
		return nil, err
	}

	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	logger = logger.With(zap.String(logg.SessionID, sessionID))

	sess := &entity.Session{
		ID:        sessionID,
		Kind:      entity.ActivityDebug,
		Status:    entity.SessionStarting,
		StartedAt: s.clock.Now(),
	}

	if err = s.store.Put(sess); err != nil {
		return nil, err
	}

	chromium := s.locator.AvailableChromiumExecutable()

	specPath, configPath, err := s.files.WriteRunFiles(entity.ActivityDebug, sessionID, normalized, script.RunOptions{
		Browser:        s.config.ProcessConfig.Browser,
		Headless:       false,
		ExecutablePath: chromium,
	})
	if err != nil {
		s.store.Remove(sessionID)

		return nil, err
	}

	sess.SpecPath = specPath
	sess.ConfigPath = configPath
	step.AddEvent("run files written")

	binary := s.locator.FindPlaywrightBinary()

	h, err := s.supervisor.Launch(proc.LaunchSpec{
		SessionID:  sessionID,
		Kind:       entity.ActivityDebug,
		Binary:     binary,
		Subcommand: "test",
		Args: []string{
			"--config=" + filepath.Base(configPath),
			filepath.Base(specPath),
			"--debug",
		},
		Dir:          filepath.Dir(specPath),
		BrowsersPath: s.locator.BrowserPath(),
	})
	if err != nil {
		s.cleanup(sess)
		s.store.Remove(sessionID)

		return nil, err
	}

	if attachErr := s.store.Attach(sessionID, h, entity.SessionRunning); attachErr != nil {
		logger.Warn("Session no longer startable, terminating debug run", zap.Error(attachErr))
		s.supervisor.Stop(h)
		s.cleanup(sess)
		s.store.Remove(sessionID)

		return nil, attachErr
	}

	step.AddEvent("debug process running")

	select {
	case <-h.Done():
	case <-ctx.Done():
		logger.Info("Context cancelled, stopping debug session")
		s.supervisor.Stop(h)
	}

	exit := h.Exit()

	s.cleanup(sess)
	_ = s.store.UpdateStatus(sessionID, terminalStatus(exit))
	s.store.Remove(sessionID)

	return &entity.DebugResult{
		SessionID: sessionID,
		Success:   exit.Success(),
		ExitCode:  exit.Code,
		Stdout:    h.Stdout(),
		Stderr:    h.Stderr(),
	}, nil
}

// StopDebugSession is idempotent: stopping an absent or already
// terminal session is a no-op.
func (s *Service) StopDebugSession(ctx context.Context, sessionID string) (err error) {
	const op = "StopDebugSession"
	logger := s.logger.With(zap.String(logg.Operation, op), zap.String(logg.SessionID, sessionID))

	_, step := tracing.StartSpan(ctx, s.tracer, logger, op,
		attribute.String("session_id", sessionID))
	defer func() {
		step.End(err)
	}()

	entry, ok := s.store.Get(sessionID)
	if !ok {
		logger.Info("Debug session already stopped")

		return nil
	}

	_ = s.store.UpdateStatus(sessionID, entity.SessionStopping)

	if entry.Handle != nil {
		s.supervisor.Stop(entry.Handle)
	}

	// StartDebugSession's blocked caller performs the terminal
	// transition and cleanup once the process close lands.
	return nil
}

func (s *Service) cleanup(sess *entity.Session) {
	if sess.BeginCleanup() {
		s.files.Cleanup(sess.TempPaths()...)
	}
}

func (s *Service) ActiveSessions() []*entity.Session {
	return s.store.Active(entity.ActivityDebug)
}

func terminalStatus(exit entity.ProcessExit) entity.SessionStatus {
	if exit.Success() {
		return entity.SessionCompleted
	}

	return entity.SessionError
}
