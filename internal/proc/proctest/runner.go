// Package proctest provides a fake CommandRunner so supervisor and
// orchestrator behavior is testable without spawning real processes.
package proctest

import (
	"io"
	"strings"
	"sync"

	"scenably/internal/ports"
)

type Runner struct {
	mu      sync.Mutex
	factory func(cmd ports.Command) (*Process, error)
	started []*Process
}

func NewRunner(factory func(cmd ports.Command) (*Process, error)) *Runner {
	return &Runner{factory: factory}
}

func (r *Runner) Start(cmd ports.Command) (ports.Process, error) {
	p, err := r.factory(cmd)
	if err != nil {
		return nil, err
	}

	p.start(cmd)

	r.mu.Lock()
	r.started = append(r.started, p)
	r.mu.Unlock()

	return p, nil
}

func (r *Runner) Started() []*Process {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]*Process(nil), r.started...)
}

// Process simulates a child. Zero value never exits on its own; set
// AutoExit for processes that finish immediately, IgnoreTerminate for
// ones that only die on Kill.
type Process struct {
	StdoutData      string
	StderrData      string
	ExitCode        int
	AutoExit        bool
	IgnoreTerminate bool

	cmd       ports.Command
	stdout    io.Reader
	stderr    io.Reader
	exited    chan struct{}
	once      sync.Once
	mu        sync.Mutex
	termCalls int
	killCalls int
}

func (p *Process) start(cmd ports.Command) {
	p.cmd = cmd
	p.stdout = strings.NewReader(p.StdoutData)
	p.stderr = strings.NewReader(p.StderrData)
	p.exited = make(chan struct{})

	if p.AutoExit {
		p.Exit()
	}
}

func (p *Process) Exit() {
	p.once.Do(func() { close(p.exited) })
}

func (p *Process) PID() int {
	return 4242
}

func (p *Process) Stdout() io.Reader {
	return p.stdout
}

func (p *Process) Stderr() io.Reader {
	return p.stderr
}

func (p *Process) Wait() (int, error) {
	<-p.exited

	return p.ExitCode, nil
}

func (p *Process) Terminate() error {
	p.mu.Lock()
	p.termCalls++
	p.mu.Unlock()

	if !p.IgnoreTerminate {
		p.Exit()
	}

	return nil
}

func (p *Process) Kill() error {
	p.mu.Lock()
	p.killCalls++
	p.mu.Unlock()

	p.Exit()

	return nil
}

func (p *Process) Cmd() ports.Command {
	return p.cmd
}

func (p *Process) TermCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.termCalls
}

func (p *Process) KillCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.killCalls
}
