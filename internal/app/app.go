// Package app ties the typing config, the browser supervisor and the event
// notifier together behind the operations the UI and CLI expose.
package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/notify"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/secret"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/supervisor"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/typing"
)

// ChromeMissingMessage is the payload of the startup ChromeMissing event.
const ChromeMissingMessage = "Google Chrome could not be found on this system."

// historyTimeout bounds a single history write.
const historyTimeout = 2 * time.Second

// Prober finds what a browser run needs. Each method takes an optional
// override path that is tried first.
type Prober interface {
	Chrome(override string) (string, error)
	Script(override string) (string, error)
	Runtime(override string) (string, error)
}

// RunRecorder keeps run history.
type RunRecorder interface {
	Started(ctx context.Context, info supervisor.RunInfo) error
	Finished(ctx context.Context, exit supervisor.Exit) error
}

// Overrides pin discovery to explicit paths. Empty fields search as usual.
type Overrides struct {
	Runtime string
	Target  string
	Script  string
}

// Deps are the collaborators of an App. Store, Sync, Probe, Secret and
// DataDir are required.
type Deps struct {
	Store     *typing.Store
	Sync      *typing.Sync
	Probe     Prober
	Secret    *secret.Store
	DataDir   string
	Overrides Overrides

	Notifier notify.Notifier
	Output   supervisor.OutputSink
	History  RunRecorder
	Opener   Opener
	Log      *zap.Logger
}

// App is the application core. One App is built per process.
type App struct {
	store   *typing.Store
	sync    *typing.Sync
	probe   Prober
	secret  *secret.Store
	dataDir string
	over    Overrides

	notifier notify.Notifier
	history  RunRecorder
	opener   Opener
	log      *zap.Logger

	super *supervisor.Supervisor

	// startMu makes Start atomic from the running check to the spawn.
	startMu sync.Mutex

	// cfgMu orders mutate+persist so the file always holds the latest
	// snapshot.
	cfgMu sync.Mutex
}

// New builds an App from d.
func New(d Deps) (*App, error) {
	if d.Store == nil || d.Sync == nil || d.Probe == nil || d.Secret == nil || d.DataDir == "" {
		return nil, errors.New("app: Store, Sync, Probe, Secret and DataDir are required")
	}
	a := &App{
		store:    d.Store,
		sync:     d.Sync,
		probe:    d.Probe,
		secret:   d.Secret,
		dataDir:  d.DataDir,
		over:     d.Overrides,
		notifier: d.Notifier,
		history:  d.History,
		opener:   d.Opener,
		log:      d.Log,
	}
	if a.notifier == nil {
		a.notifier = notify.Nop
	}
	if a.opener == nil {
		a.opener = SystemOpener()
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}

	opts := []supervisor.Option{
		supervisor.WithLogger(a.log.Named("supervisor")),
		supervisor.WithExitHook(a.onExit),
	}
	if d.Output != nil {
		opts = append(opts, supervisor.WithOutput(d.Output))
	}
	a.super = supervisor.New(opts...)
	return a, nil
}

// OpenBrowser starts the automation script against Chrome with the current
// typing config. It returns once the process has started; its end is
// reported through an Enabled event. Nothing is started when any
// prerequisite is missing.
func (a *App) OpenBrowser(ctx context.Context) error {
	_, err := a.Start(ctx)
	return err
}

// Start is OpenBrowser returning the started process, for callers that
// wait on it.
func (a *App) Start(ctx context.Context) (*supervisor.Process, error) {
	a.startMu.Lock()
	defer a.startMu.Unlock()

	if _, running := a.super.Running(); running {
		return nil, ErrAlreadyRunning
	}

	chrome, err := a.probe.Chrome(a.over.Target)
	if err != nil {
		return nil, missing(ComponentTarget, err)
	}
	script, err := a.probe.Script(a.over.Script)
	if err != nil {
		return nil, missing(ComponentScript, err)
	}

	a.cfgMu.Lock()
	cfg := a.store.Get()
	err = a.sync.Persist(cfg)
	a.cfgMu.Unlock()
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	a.notifier.Emit(notify.New(notify.Opening, "").WithRun(runID))

	node, err := a.probe.Runtime(a.over.Runtime)
	if err != nil {
		return nil, missing(ComponentRuntime, err)
	}

	key, _, err := a.secret.Load()
	if err != nil {
		a.log.Warn("api key unreadable, starting without it", zap.Error(err))
		key = ""
	}

	p, err := a.super.Spawn(ctx, supervisor.Command{
		ID:   runID,
		Path: node,
		Args: []string{script, chrome, a.dataDir, a.sync.Path(), key},
	})
	if err != nil {
		return nil, fmt.Errorf("app: open browser: %w", err)
	}

	a.log.Info("browser opening",
		zap.String("run", runID),
		zap.String("script", script),
		zap.String("chrome", chrome),
		zap.String("key", secret.Redact(key)),
		zap.Uint32("min_delay", cfg.MinDelay),
		zap.Uint32("max_delay", cfg.MaxDelay),
		zap.Uint32("error_rate", cfg.ErrorRate))

	if a.history != nil {
		hctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
		if err := a.history.Started(hctx, redactedInfo(p.Info())); err != nil {
			a.log.Warn("history start", zap.Error(err))
		}
		cancel()
	}
	return p, nil
}

// redactedInfo masks the API key, the last argument, before it is stored.
func redactedInfo(info supervisor.RunInfo) supervisor.RunInfo {
	info.Args = slices.Clone(info.Args)
	if n := len(info.Args); n > 0 {
		info.Args[n-1] = secret.Redact(info.Args[n-1])
	}
	return info
}

// onExit runs once per browser run, after the slot has been emptied. It may
// block on the history database, so it never runs under the slot lock.
func (a *App) onExit(exit supervisor.Exit) {
	if exit.Err != nil {
		a.log.Error("browser run failed", zap.String("run", exit.RunID), zap.Error(exit.Err))
	}
	if a.history != nil {
		hctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
		if err := a.history.Finished(hctx, exit); err != nil {
			a.log.Warn("history finish", zap.Error(err))
		}
		cancel()
	}
	a.notifier.Emit(notify.New(notify.Enabled, "").WithRun(exit.RunID))
}

// KillBrowser closes a running browser. It reports false if none was open.
func (a *App) KillBrowser() bool { return a.super.Kill() }

// Running reports the current browser run, if any.
func (a *App) Running() (supervisor.RunInfo, bool) { return a.super.Running() }

// Quit kills any running browser without waiting for it to die. The
// returned channel closes once the kill has been sent and the exit
// recorded.
func (a *App) Quit() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.super.Kill()
	}()
	return done
}

// Shutdown quits and then waits for the browser's monitor to record the
// exit, bounded by ctx. The kill is sent even when ctx expires first.
func (a *App) Shutdown(ctx context.Context) error {
	killed := a.Quit()
	select {
	case <-killed:
	case <-ctx.Done():
		return ctx.Err()
	}
	return a.super.Drain(ctx)
}

// CheckEnvironment looks for Chrome and emits ChromeMissing if there is
// none. Called once at startup.
func (a *App) CheckEnvironment() error {
	if _, err := a.probe.Chrome(a.over.Target); err != nil {
		a.log.Warn("chrome not found", zap.Error(err))
		a.notifier.Emit(notify.New(notify.ChromeMissing, ChromeMissingMessage))
		return missing(ComponentTarget, err)
	}
	return nil
}
