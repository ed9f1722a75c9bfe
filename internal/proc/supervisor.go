package proc

import (
	"bufio"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"scenably/internal/config"
	"scenably/internal/entity"
	"scenably/internal/locator"
	"scenably/internal/ports"
	"scenably/pkg/apperr"
	"scenably/pkg/logg"
)

const (
	supervisorName = "ProcessSupervisor"

	scanInitialBuf = 64 * 1024
	scanMaxBuf     = 1024 * 1024
)

// Supervisor builds the argv/environment for the Playwright CLI,
// spawns it through the injected runner, and multiplexes its output
// into per-session buffers and the application log.
type Supervisor struct {
	config  *config.Config
	logger  *zap.Logger
	clock   clock.Clock
	runner  ports.CommandRunner
	locator *locator.Locator
}

type Params struct {
	fx.In

	Config  *config.Config
	Logger  *zap.Logger
	Clock   clock.Clock
	Runner  ports.CommandRunner
	Locator *locator.Locator
}

func NewSupervisor(params Params) *Supervisor {
	return &Supervisor{
		config:  params.Config,
		logger:  params.Logger.With(zap.String(logg.Layer, supervisorName)),
		clock:   params.Clock,
		runner:  params.Runner,
		locator: params.Locator,
	}
}

// LaunchSpec describes one external CLI invocation. File arguments are
// basenames resolved against Dir; absolute Windows paths passed as
// test-file filters get their backslashes read as regex metacharacters
// by the runner, so the working directory carries the location instead.
type LaunchSpec struct {
	SessionID    string
	Kind         entity.ActivityKind
	Binary       locator.Binary
	Subcommand   string
	Args         []string
	Dir          string
	BrowsersPath string
}

func (s *Supervisor) Launch(spec LaunchSpec) (*Handle, error) {
	const op = "Launch"
	logger := s.logger.With(
		zap.String(logg.Operation, op),
		zap.String(logg.SessionID, spec.SessionID),
		zap.String(logg.Kind, string(spec.Kind)),
	)

	path, argv := s.commandLine(spec)
	env := s.environment(spec)

	logger.Info("Spawning playwright process",
		zap.String(logg.Path, path),
		zap.Strings("args", argv),
		zap.String("dir", spec.Dir))

	p, err := s.runner.Start(ports.Command{
		Path: path,
		Args: argv,
		Dir:  spec.Dir,
		Env:  env,
	})
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeSpawnFailed, err, map[string]any{
			apperr.MetaReason:    "spawn_failed",
			apperr.MetaStage:     apperr.StageSpawn,
			apperr.MetaSessionID: spec.SessionID,
			apperr.MetaPath:      path,
		})
	}

	logger.Info("Process spawned", zap.Int(logg.PID, p.PID()))

	h := newHandle(p, s.config.ProcessConfig.OutputBufferBytes)
	go h.consume(logger)

	return h, nil
}

func (s *Supervisor) commandLine(spec LaunchSpec) (string, []string) {
	args := append([]string{spec.Subcommand}, spec.Args...)

	if spec.Binary.JS {
		return s.config.RuntimeConfig.NodeCommand, append([]string{spec.Binary.Path}, args...)
	}

	return spec.Binary.Path, args
}

func (s *Supervisor) environment(spec LaunchSpec) []string {
	env := os.Environ()

	nodePath := strings.Join(s.locator.NodeModulesDirs(), string(os.PathListSeparator))
	env = append(env, "NODE_PATH="+nodePath)

	if spec.BrowsersPath != "" {
		env = append(env, "PLAYWRIGHT_BROWSERS_PATH="+spec.BrowsersPath)
	}

	if s.config.ProcessConfig.DisableBrowserFetch {
		env = append(env, "PLAYWRIGHT_SKIP_BROWSER_DOWNLOAD=1")
	}

	if spec.Binary.JS && s.config.RuntimeConfig.Packaged {
		// The packaged launcher is the Electron binary acting as Node.
		env = append(env, "ELECTRON_RUN_AS_NODE=1")
	}

	return env
}

// Stop terminates gracefully, waits out the grace period on the
// injected clock, then escalates to a forceful kill. Calling it on an
// already-exited process just returns the recorded exit.
func (s *Supervisor) Stop(h ports.ProcessHandle) entity.ProcessExit {
	const op = "Stop"
	logger := s.logger.With(zap.String(logg.Operation, op), zap.Int(logg.PID, h.PID()))

	select {
	case <-h.Done():
		return h.Exit()
	default:
	}

	if err := h.Terminate(); err != nil {
		logger.Warn("Graceful terminate failed", zap.Error(err))
	}

	timer := s.clock.Timer(s.config.ProcessConfig.StopGracePeriod)
	defer timer.Stop()

	select {
	case <-h.Done():
	case <-timer.C:
		logger.Warn("Grace period elapsed, killing process")

		if err := h.Kill(); err != nil {
			logger.Warn("Kill failed", zap.Error(err))
		}

		<-h.Done()
	}

	return h.Exit()
}

// Handle is the session's exclusive view of a spawned process.
type Handle struct {
	proc   ports.Process
	stdout *outputBuffer
	stderr *outputBuffer
	done   chan struct{}
	exit   entity.ProcessExit
}

func newHandle(p ports.Process, bufferBytes int) *Handle {
	return &Handle{
		proc:   p,
		stdout: newOutputBuffer(bufferBytes),
		stderr: newOutputBuffer(bufferBytes),
		done:   make(chan struct{}),
	}
}

func (h *Handle) consume(logger *zap.Logger) {
	var wg sync.WaitGroup

	wg.Add(2)
	go h.scan(&wg, h.proc.Stdout(), h.stdout, logger.Named("stdout"))
	go h.scan(&wg, h.proc.Stderr(), h.stderr, logger.Named("stderr"))
	wg.Wait()

	code, err := h.proc.Wait()
	h.exit = entity.ProcessExit{Code: code, Err: err}

	logger.Info("Process exited", zap.Int(logg.ExitCode, code), zap.Error(err))
	close(h.done)
}

func (h *Handle) scan(wg *sync.WaitGroup, r io.Reader, buf *outputBuffer, logger *zap.Logger) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, scanInitialBuf), scanMaxBuf)

	for scanner.Scan() {
		line := scanner.Text()
		buf.Write(append([]byte(line), '\n'))
		logger.Debug(line)
	}
}

func (h *Handle) PID() int {
	return h.proc.PID()
}

func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Exit is only meaningful after Done is closed.
func (h *Handle) Exit() entity.ProcessExit {
	return h.exit
}

func (h *Handle) Stdout() string {
	return h.stdout.String()
}

func (h *Handle) Stderr() string {
	return h.stderr.String()
}

func (h *Handle) Terminate() error {
	return h.proc.Terminate()
}

func (h *Handle) Kill() error {
	return h.proc.Kill()
}
