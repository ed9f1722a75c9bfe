package recorder

import (
	"context"
	"errors"
	"fmt"
	"os"
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
	"scenably/pkg/apperr"
	"scenably/pkg/logg"
	"scenably/pkg/tracing"
)

const (
	recorderName   = "RecorderService"
	recorderTracer = "recorder.service"
)

// Service drives interactive codegen recordings. Recording is the most
// environment-fragile activity, so every failure on the codegen path
// degrades to a generated template instead of surfacing an error: the
// caller always gets something runnable back from Stop.
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
		logger:     params.Logger.With(zap.String(logg.Layer, recorderName)),
		tracer:     otel.Tracer(recorderTracer),
		clock:      params.Clock,
		store:      params.Store,
		locator:    params.Locator,
		supervisor: params.Supervisor,
		files:      params.Materializer,
	}
}

// Start registers the session and returns immediately; the codegen
// process is spawned asynchronously.
func (s *Service) Start(ctx context.Context, url, sessionID string) (resp *entity.StartResponse, err error) {
	const op = "Start"
	logger := s.logger.With(zap.String(logg.Operation, op), zap.String(logg.URL, url))

	_, step := tracing.StartSpan(ctx, s.tracer, logger, op,
		attribute.String("url", url),
		attribute.String("session_id", sessionID))
	defer func() {
		step.End(err)
	}()

	if url == "" {
		return nil, apperr.InvalidReqError(op, "url", errors.New("url cannot be empty"))
	}

	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	outputPath, err := s.files.RecordingOutputPath(sessionID)
	if err != nil {
		return nil, err
	}

	sess := &entity.Session{
		ID:         sessionID,
		Kind:       entity.ActivityRecord,
		Status:     entity.SessionStarting,
		URL:        url,
		OutputPath: outputPath,
		StartedAt:  s.clock.Now(),
	}

	if err = s.store.Put(sess); err != nil {
		return nil, err
	}

	step.AddEvent("session registered")

	go s.record(sess)

	return &entity.StartResponse{
		SessionID: sessionID,
		Message:   "recording started",
	}, nil
}

func (s *Service) record(sess *entity.Session) {
	const op = "record"
	logger := s.logger.With(zap.String(logg.Operation, op), zap.String(logg.SessionID, sess.ID))

	_, step := tracing.StartSpan(context.Background(), s.tracer, logger, op,
		attribute.String("session_id", sess.ID))

	binary := s.locator.FindPlaywrightBinary()
	step.AddEvent("binary resolved")

	dir := filepath.Dir(sess.OutputPath)

	h, err := s.supervisor.Launch(proc.LaunchSpec{
		SessionID:  sess.ID,
		Kind:       entity.ActivityRecord,
		Binary:     binary,
		Subcommand: "codegen",
		Args: []string{
			sess.URL,
			"--output", filepath.Base(sess.OutputPath),
			"--browser", s.config.ProcessConfig.Browser,
		},
		Dir:          dir,
		BrowsersPath: s.locator.BrowserPath(),
	})
	if err != nil {
		logger.Warn("Codegen spawn failed, generating template", zap.Error(err))
		s.writeTemplate(sess)
		s.finish(sess, entity.SessionError)
		step.End(err)

		return
	}

	if err := s.store.Attach(sess.ID, h, entity.SessionRecording); err != nil {
		// Stop raced us before spawn confirmed; the process must not
		// outlive the session.
		logger.Warn("Session no longer startable, terminating codegen", zap.Error(err))
		s.supervisor.Stop(h)
		step.End(err)

		return
	}

	step.AddEvent("codegen running")

	<-h.Done()
	exit := h.Exit()

	if exit.Success() {
		s.finish(sess, entity.SessionCompleted)
		step.End(nil)

		return
	}

	logger.Warn("Codegen exited abnormally, ensuring template output",
		zap.Int(logg.ExitCode, exit.Code), zap.Error(exit.Err))
	s.writeTemplate(sess)
	s.finish(sess, entity.SessionError)
	step.End(exit.Err)
}

func (s *Service) finish(sess *entity.Session, status entity.SessionStatus) {
	// The session may already be gone if Stop won the race; both paths
	// are fine, removal is idempotent.
	_ = s.store.UpdateStatus(sess.ID, status)
	s.store.Remove(sess.ID)
}

// writeTemplate materializes the fallback skeleton at the expected
// output path only when codegen left nothing usable behind.
func (s *Service) writeTemplate(sess *entity.Session) {
	if info, err := os.Stat(sess.OutputPath); err == nil && info.Size() > 0 {
		return
	}

	if err := os.WriteFile(sess.OutputPath, []byte(DefaultTemplate(sess.URL)), 0o644); err != nil {
		s.logger.Warn("Template write failed",
			zap.String(logg.SessionID, sess.ID),
			zap.String(logg.Path, sess.OutputPath),
			zap.Error(err))
	}
}

// Stop terminates the session's process, polls for a readable output
// file within a bounded wait, and returns its content. A session the
// Store has lost track of is still served best-effort: the UI may
// retry Stop after a crash or reload, and that must not fail.
func (s *Service) Stop(ctx context.Context, sessionID string) (resp *entity.StopResponse, err error) {
	const op = "Stop"
	logger := s.logger.With(zap.String(logg.Operation, op), zap.String(logg.SessionID, sessionID))

	_, step := tracing.StartSpan(ctx, s.tracer, logger, op,
		attribute.String("session_id", sessionID))
	defer func() {
		step.End(err)
	}()

	if sessionID == "" {
		return nil, apperr.InvalidReqError(op, "session_id", errors.New("session id cannot be empty"))
	}

	outputPath, err := s.files.RecordingOutputPath(sessionID)
	if err != nil {
		return nil, err
	}

	entry, ok := s.store.Get(sessionID)
	if !ok {
		logger.Info("Session not found, salvaging any existing output")

		code := readOutput(outputPath)
		s.files.Cleanup(outputPath)

		if code == "" {
			code = DefaultTemplate("")
		}

		return &entity.StopResponse{
			SessionID: sessionID,
			Code:      code,
			Message:   "session was not active; returned captured or template code",
		}, nil
	}

	_ = s.store.UpdateStatus(sessionID, entity.SessionStopping)
	step.AddEvent("session stopping")

	if entry.Handle != nil {
		s.supervisor.Stop(entry.Handle)
		step.AddEvent("process stopped")
	}

	code := s.pollOutput(outputPath)
	if code == "" {
		logger.Warn("No readable output after stop, returning template")
		code = DefaultTemplate(entry.Session.URL)
	}

	s.files.Cleanup(outputPath)
	_ = s.store.UpdateStatus(sessionID, entity.SessionCompleted)
	s.store.Remove(sessionID)

	return &entity.StopResponse{
		SessionID: sessionID,
		Code:      code,
		Message:   "recording stopped",
	}, nil
}

func (s *Service) pollOutput(path string) string {
	attempts := s.config.ProcessConfig.OutputPollAttempts
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		if code := readOutput(path); code != "" {
			return code
		}

		if i < attempts-1 {
			s.clock.Sleep(s.config.ProcessConfig.OutputPollInterval)
		}
	}

	return ""
}

func readOutput(path string) string {
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		return ""
	}

	return string(data)
}

func (s *Service) ActiveSessions() []*entity.Session {
	return s.store.Active(entity.ActivityRecord)
}

// DefaultTemplate is the "user always gets something runnable" floor:
// a test skeleton navigating to the requested page.
func DefaultTemplate(url string) string {
	if url == "" {
		url = "https://example.com"
	}

	return fmt.Sprintf(`import { test, expect } from '@playwright/test';

// Recording was not available in this environment, so this scenario
// starts from a generated skeleton. Extend it with your own steps.
test('recorded scenario', async ({ page }) => {
  await page.goto(%s);
  await expect(page).toHaveURL(%s);
});
`, jsString(url), jsString(url))
}

func jsString(s string) string {
	return fmt.Sprintf("%q", s)
}
