// Package supervisor owns the single browser automation subprocess. It
// starts the process, drains its output, and guarantees that every
// lifecycle ends with exactly one exit notification whether the process
// exits on its own or is killed.
package supervisor

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Process is one spawned subprocess.
type Process struct {
	info   RunInfo
	cmd    *exec.Cmd
	killed atomic.Bool
	hooked chan struct{} // closed once the exit hook has returned
	done   chan struct{} // closed when the monitor has reaped it
	exit   Exit          // written once, by whoever empties the slot
}

// Info returns the run details.
func (p *Process) Info() RunInfo { return p.info }

// Done is closed once the OS process has been reaped, its output drained
// and the exit hook has run.
func (p *Process) Done() <-chan struct{} { return p.done }

// Exit returns the outcome. Valid after Done is closed.
func (p *Process) Exit() Exit { return p.exit }

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLogger sets the logger. The default discards.
func WithLogger(log *zap.Logger) Option {
	return func(s *Supervisor) {
		if log != nil {
			s.log = log
		}
	}
}

// WithOutput forwards process output to sink.
func WithOutput(sink OutputSink) Option {
	return func(s *Supervisor) { s.sink = sink }
}

// WithExitHook registers fn to run once per lifecycle with the outcome.
// fn runs after the slot has been emptied, outside the slot lock.
func WithExitHook(fn func(Exit)) Option {
	return func(s *Supervisor) { s.onExit = fn }
}

// Supervisor holds at most one running process.
type Supervisor struct {
	mu      sync.Mutex
	current *Process

	log    *zap.Logger
	sink   OutputSink
	onExit func(Exit)

	monitors sync.WaitGroup
}

// New creates an idle Supervisor.
func New(opts ...Option) *Supervisor {
	s := &Supervisor{log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Spawn starts c and installs it in the slot. It fails with
// ErrAlreadyRunning when the slot is taken, and with *SpawnError when the
// process cannot be started. The process is not tied to ctx; ctx only
// aborts the call before anything has been started.
func (s *Supervisor) Spawn(ctx context.Context, c Command) (*Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return nil, ErrAlreadyRunning
	}

	id := c.ID
	if id == "" {
		id = uuid.NewString()
	}

	cmd := exec.Command(c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &SpawnError{Path: c.Path, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &SpawnError{Path: c.Path, Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Path: c.Path, Err: err}
	}

	p := &Process{
		info: RunInfo{
			ID:        id,
			Path:      c.Path,
			Args:      append([]string(nil), c.Args...),
			PID:       cmd.Process.Pid,
			StartedAt: time.Now(),
		},
		cmd:    cmd,
		hooked: make(chan struct{}),
		done:   make(chan struct{}),
	}
	s.current = p
	s.log.Info("process started",
		zap.String("run", id), zap.String("path", c.Path), zap.Int("pid", p.info.PID))

	s.monitors.Add(1)
	go s.monitor(p, stdout, stderr)
	return p, nil
}

// monitor drains output, reaps the process and releases the slot.
func (s *Supervisor) monitor(p *Process, stdout, stderr io.Reader) {
	defer s.monitors.Done()
	defer close(p.done)

	var g errgroup.Group
	g.Go(func() error { return s.drain(p.info.ID, Stdout, stdout) })
	g.Go(func() error { return s.drain(p.info.ID, Stderr, stderr) })
	if err := g.Wait(); err != nil {
		s.log.Debug("output drain", zap.String("run", p.info.ID), zap.Error(err))
	}

	err := p.cmd.Wait()
	exit := Exit{
		RunID:     p.info.ID,
		Code:      -1,
		Killed:    p.killed.Load(),
		StartedAt: p.info.StartedAt,
		EndedAt:   time.Now(),
	}
	if st := p.cmd.ProcessState; st != nil {
		exit.Code = st.ExitCode()
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		exit.Err = &WaitError{RunID: p.info.ID, Err: err}
		s.log.Error("process wait", zap.String("run", p.info.ID), zap.Error(err))
	}

	s.mu.Lock()
	won := s.releaseLocked(p, exit)
	s.mu.Unlock()
	if won {
		s.log.Info("process exited",
			zap.String("run", p.info.ID), zap.Int("code", exit.Code), zap.Duration("ran", exit.Duration()))
		s.runHook(p)
	} else {
		s.log.Debug("process reaped after kill", zap.String("run", p.info.ID), zap.Int("code", exit.Code))
	}
	<-p.hooked
}

func (s *Supervisor) drain(runID string, stream Stream, r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if s.sink != nil {
			s.sink.Line(runID, stream, sc.Text())
		}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}

// releaseLocked empties the slot if it still holds p and records exit.
// The caller that gets true must then call runHook. s.mu must be held.
func (s *Supervisor) releaseLocked(p *Process, exit Exit) bool {
	if s.current != p {
		return false
	}
	s.current = nil
	p.exit = exit
	return true
}

func (s *Supervisor) runHook(p *Process) {
	defer close(p.hooked)
	if s.onExit != nil {
		s.onExit(p.exit)
	}
}

// Kill sends the running process an OS kill without waiting for it to
// die, and empties the slot. It reports false when nothing was running.
func (s *Supervisor) Kill() bool {
	s.mu.Lock()
	p := s.current
	if p == nil {
		s.mu.Unlock()
		return false
	}
	p.killed.Store(true)
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		s.log.Warn("process kill", zap.String("run", p.info.ID), zap.Error(err))
	}
	s.releaseLocked(p, Exit{
		RunID:     p.info.ID,
		Code:      -1,
		Killed:    true,
		StartedAt: p.info.StartedAt,
		EndedAt:   time.Now(),
	})
	s.mu.Unlock()

	s.log.Info("process killed", zap.String("run", p.info.ID))
	s.runHook(p)
	return true
}

// Running returns the current process, if any.
func (s *Supervisor) Running() (RunInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return RunInfo{}, false
	}
	return s.current.info, true
}

// Drain waits for every monitor to finish, bounded by ctx. It does not kill
// anything.
func (s *Supervisor) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.monitors.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
