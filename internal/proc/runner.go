package proc

import (
	"errors"
	"io"
	"os/exec"

	"scenably/internal/ports"
)

type execRunner struct{}

// NewRunner returns the os/exec backed CommandRunner used outside of
// tests.
func NewRunner() ports.CommandRunner {
	return &execRunner{}
}

func (r *execRunner) Start(cmd ports.Command) (ports.Process, error) {
	c := exec.Command(cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = cmd.Env
	c.Stdin = nil

	configureSysProcAttr(c)

	stdout, err := c.StdoutPipe()
	if err != nil {
		return nil, err
	}

	stderr, err := c.StderrPipe()
	if err != nil {
		return nil, err
	}

	if err := c.Start(); err != nil {
		return nil, err
	}

	return &osProcess{cmd: c, stdout: stdout, stderr: stderr}, nil
}

type osProcess struct {
	cmd    *exec.Cmd
	stdout io.Reader
	stderr io.Reader
}

func (p *osProcess) PID() int {
	return p.cmd.Process.Pid
}

func (p *osProcess) Stdout() io.Reader {
	return p.stdout
}

func (p *osProcess) Stderr() io.Reader {
	return p.stderr
}

func (p *osProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}

	return -1, err
}

func (p *osProcess) Terminate() error {
	return terminateProcess(p.cmd)
}

func (p *osProcess) Kill() error {
	return killProcess(p.cmd)
}
