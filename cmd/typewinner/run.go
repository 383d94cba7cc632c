package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/notify"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/supervisor"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/tui"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/typing"
)

// quitGrace bounds how long exit waits for a killed browser to be reaped
// so its run is recorded. The kill itself is never waited on longer.
const quitGrace = 250 * time.Millisecond

// runTUI runs the terminal UI until the user quits.
func runTUI(parent context.Context, flags globalFlags) error {
	ctx, cancel := signalContext(parent)
	defer cancel()

	events := make(chan notify.Event, 64)
	output := make(tui.OutputChannel, 256)
	e, err := newEnv(ctx, envOptions{
		flags:     flags,
		logToFile: true,
		browser:   true,
		notifier:  notify.NewChannel(events, nil),
		output:    output,
	})
	if err != nil {
		return err
	}
	defer e.close()
	registerQuitHandler(e.app.KillBrowser)

	model := tui.New(tui.Options{
		Controller:  e.app,
		Events:      events,
		Output:      output,
		AccentColor: e.cfg.TUI.AccentColor,
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := e.sync.Watch(ctx, e.log.Named("sync"), func(cfg typing.Config) {
			if e.app.ApplyExternal(cfg) {
				program.Send(tui.ConfigChangedMsg(cfg))
			}
		})
		if err != nil {
			e.log.Warn("config watch stopped", zap.Error(err))
		}
	}()

	// The result reaches the TUI as a chrome-error event.
	_ = e.app.CheckEnvironment()

	_, runErr := program.Run()
	cancel()
	wg.Wait()
	shutdown(e)
	for _, span := range e.outLog.Runs() {
		e.log.Info("run output",
			zap.String("run", span.RunID),
			zap.Int("lines", span.Lines),
			zap.Int("stderr", span.Stderr))
	}

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", runErr)
	}
	return nil
}

// runPlain opens the browser and prints events and browser output to w
// until the browser exits or the process is interrupted.
func runPlain(parent context.Context, flags globalFlags, w io.Writer) error {
	ctx, cancel := signalContext(parent)
	defer cancel()

	pr := &printer{w: w, now: time.Now}
	e, err := newEnv(ctx, envOptions{
		flags:    flags,
		browser:  true,
		notifier: notify.Func(pr.event),
		output:   supervisor.SinkFunc(pr.output),
	})
	if err != nil {
		return err
	}
	defer e.close()
	registerQuitHandler(e.app.KillBrowser)

	if err := e.app.CheckEnvironment(); err != nil {
		return err
	}
	p, err := e.app.Start(ctx)
	if err != nil {
		return err
	}

	select {
	case <-p.Done():
	case <-ctx.Done():
		shutdown(e)
		return nil
	}
	if e.outLog != nil {
		span, ok := e.outLog.Run(p.Info().ID)
		pr.println(formatRunSummary(p.Info().ID, span, ok))
	}
	switch exit := p.Exit(); {
	case exit.Err != nil:
		return fmt.Errorf("browser: %w", exit.Err)
	case !exit.Killed && exit.Code != 0:
		return fmt.Errorf("browser: script exited with code %d", exit.Code)
	}
	return nil
}

// shutdown quits the app, which kills any browser without waiting, and
// gives the browser's monitor quitGrace to record the exit.
func shutdown(e *env) {
	ctx, cancel := context.WithTimeout(context.Background(), quitGrace)
	defer cancel()
	if err := e.app.Shutdown(ctx); err != nil {
		e.log.Warn("browser still exiting at shutdown", zap.Error(err))
	}
}

// printer writes plain-mode lines. Output arrives from two goroutines per
// run (stdout and stderr), so writes are serialized.
type printer struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

func (p *printer) event(e notify.Event) {
	p.println(formatEvent(e))
}

func (p *printer) output(runID string, stream supervisor.Stream, text string) {
	p.println(formatOutput(p.now(), runID, stream, text))
}

func (p *printer) println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, s)
}
