package proc

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scenably/internal/config"
	"scenably/internal/entity"
	"scenably/internal/locator"
	"scenably/internal/ports"
	"scenably/internal/proc/proctest"
	"scenably/pkg/apperr"
)

func newSupervisor(t *testing.T, runner ports.CommandRunner) (*Supervisor, *config.Config) {
	t.Helper()

	root := t.TempDir()
	cfg := &config.Config{
		AppConfig: &config.AppConfig{},
		RuntimeConfig: &config.RuntimeConfig{
			AppRoot:      root,
			ResourcesDir: filepath.Join(root, "resources"),
			TempRoot:     root,
			NodeCommand:  "node",
		},
		ProcessConfig: &config.ProcessConfig{
			Browser:             "chromium",
			StopGracePeriod:     20 * time.Millisecond,
			OutputPollInterval:  time.Millisecond,
			OutputPollAttempts:  2,
			MaxConcurrentExecs:  4,
			OutputBufferBytes:   1 << 16,
			DisableBrowserFetch: true,
		},
	}

	loc := locator.New(cfg, zap.NewNop(), locator.DefaultProfile("linux"))
	sup := NewSupervisor(Params{
		Config:  cfg,
		Logger:  zap.NewNop(),
		Clock:   clock.New(),
		Runner:  runner,
		Locator: loc,
	})

	return sup, cfg
}

func launchSpec(t *testing.T, binary locator.Binary) LaunchSpec {
	t.Helper()

	return LaunchSpec{
		SessionID:    "s1",
		Kind:         entity.ActivityExecute,
		Binary:       binary,
		Subcommand:   "test",
		Args:         []string{"--config=playwright.config.execute-s1.ts", "exec-s1.spec.ts"},
		Dir:          t.TempDir(),
		BrowsersPath: "/opt/browsers",
	}
}

func TestLaunchCapturesOutput(t *testing.T) {
	runner := proctest.NewRunner(func(ports.Command) (*proctest.Process, error) {
		return &proctest.Process{StdoutData: "1 passed\n", StderrData: "warn: slow\n", AutoExit: true}, nil
	})
	sup, _ := newSupervisor(t, runner)

	h, err := sup.Launch(launchSpec(t, locator.Binary{Path: "/usr/bin/playwright"}))
	require.NoError(t, err)

	<-h.Done()

	assert.True(t, h.Exit().Success())
	assert.Contains(t, h.Stdout(), "1 passed")
	assert.Contains(t, h.Stderr(), "warn: slow")
}

func TestLaunchDirectBinaryCommandLine(t *testing.T) {
	runner := proctest.NewRunner(func(ports.Command) (*proctest.Process, error) {
		return &proctest.Process{AutoExit: true}, nil
	})
	sup, _ := newSupervisor(t, runner)

	spec := launchSpec(t, locator.Binary{Path: "/usr/bin/playwright"})
	_, err := sup.Launch(spec)
	require.NoError(t, err)

	cmd := runner.Started()[0].Cmd()
	assert.Equal(t, "/usr/bin/playwright", cmd.Path)
	assert.Equal(t, []string{"test", "--config=playwright.config.execute-s1.ts", "exec-s1.spec.ts"}, cmd.Args)
	assert.Equal(t, spec.Dir, cmd.Dir)
}

func TestLaunchJSEntryUsesNodeLauncher(t *testing.T) {
	runner := proctest.NewRunner(func(ports.Command) (*proctest.Process, error) {
		return &proctest.Process{AutoExit: true}, nil
	})
	sup, _ := newSupervisor(t, runner)

	_, err := sup.Launch(launchSpec(t, locator.Binary{Path: "/app/node_modules/playwright/cli.js", JS: true}))
	require.NoError(t, err)

	cmd := runner.Started()[0].Cmd()
	assert.Equal(t, "node", cmd.Path)
	require.NotEmpty(t, cmd.Args)
	assert.Equal(t, "/app/node_modules/playwright/cli.js", cmd.Args[0])
	assert.Equal(t, "test", cmd.Args[1])
}

func TestLaunchEnvironment(t *testing.T) {
	runner := proctest.NewRunner(func(ports.Command) (*proctest.Process, error) {
		return &proctest.Process{AutoExit: true}, nil
	})
	sup, _ := newSupervisor(t, runner)

	_, err := sup.Launch(launchSpec(t, locator.Binary{Path: "/usr/bin/playwright"}))
	require.NoError(t, err)

	env := runner.Started()[0].Cmd().Env

	assert.True(t, containsPrefix(env, "NODE_PATH="))
	assert.Contains(t, env, "PLAYWRIGHT_BROWSERS_PATH=/opt/browsers")
	assert.Contains(t, env, "PLAYWRIGHT_SKIP_BROWSER_DOWNLOAD=1")
	assert.NotContains(t, env, "ELECTRON_RUN_AS_NODE=1")
}

func TestLaunchPackagedJSEntrySetsElectronNodeMode(t *testing.T) {
	runner := proctest.NewRunner(func(ports.Command) (*proctest.Process, error) {
		return &proctest.Process{AutoExit: true}, nil
	})
	sup, cfg := newSupervisor(t, runner)
	cfg.RuntimeConfig.Packaged = true

	_, err := sup.Launch(launchSpec(t, locator.Binary{Path: "/app/cli.js", JS: true}))
	require.NoError(t, err)

	assert.Contains(t, runner.Started()[0].Cmd().Env, "ELECTRON_RUN_AS_NODE=1")
}

func TestLaunchSpawnFailure(t *testing.T) {
	runner := proctest.NewRunner(func(ports.Command) (*proctest.Process, error) {
		return nil, errors.New("exec: not found")
	})
	sup, _ := newSupervisor(t, runner)

	_, err := sup.Launch(launchSpec(t, locator.Binary{Path: "/missing"}))
	require.Error(t, err)
	assert.Equal(t, apperr.CodeSpawnFailed, apperr.CodeOf(err))
}

func TestStopGracefulExit(t *testing.T) {
	runner := proctest.NewRunner(func(ports.Command) (*proctest.Process, error) {
		return &proctest.Process{}, nil
	})
	sup, _ := newSupervisor(t, runner)

	h, err := sup.Launch(launchSpec(t, locator.Binary{Path: "/usr/bin/playwright"}))
	require.NoError(t, err)

	exit := sup.Stop(h)

	p := runner.Started()[0]
	assert.Equal(t, 1, p.TermCalls())
	assert.Zero(t, p.KillCalls())
	assert.Equal(t, 0, exit.Code)
}

func TestStopEscalatesToKill(t *testing.T) {
	runner := proctest.NewRunner(func(ports.Command) (*proctest.Process, error) {
		return &proctest.Process{IgnoreTerminate: true, ExitCode: 137}, nil
	})
	sup, _ := newSupervisor(t, runner)

	h, err := sup.Launch(launchSpec(t, locator.Binary{Path: "/usr/bin/playwright"}))
	require.NoError(t, err)

	exit := sup.Stop(h)

	p := runner.Started()[0]
	assert.Equal(t, 1, p.TermCalls())
	assert.Equal(t, 1, p.KillCalls())
	assert.Equal(t, 137, exit.Code)
}

func TestStopAfterExitDoesNotSignalTwice(t *testing.T) {
	runner := proctest.NewRunner(func(ports.Command) (*proctest.Process, error) {
		return &proctest.Process{AutoExit: true}, nil
	})
	sup, _ := newSupervisor(t, runner)

	h, err := sup.Launch(launchSpec(t, locator.Binary{Path: "/usr/bin/playwright"}))
	require.NoError(t, err)

	<-h.Done()

	exit := sup.Stop(h)

	p := runner.Started()[0]
	assert.Zero(t, p.TermCalls())
	assert.Zero(t, p.KillCalls())
	assert.True(t, exit.Success())
}

func containsPrefix(env []string, prefix string) bool {
	for _, e := range env {
		if len(e) >= len(prefix) && e[:len(prefix)] == prefix {
			return true
		}
	}

	return false
}
