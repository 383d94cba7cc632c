package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/app"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/config"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/locate"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/logging"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/notify"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/secret"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/store"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/supervisor"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/typing"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configDir string
	dataDir   string
	noTUI     bool
	verbose   bool
}

// settings is what every command needs before it touches the browser:
// resolved directories and the parsed typewinner.toml.
type settings struct {
	dirs config.Dirs
	cfg  *config.Config
}

// loadSettings resolves directories and reads typewinner.toml. The data
// directory comes from --data-dir, then [paths] data_dir, then the
// platform default.
func loadSettings(flags globalFlags) (settings, error) {
	dirs, err := config.DefaultDirs(flags.dataDir)
	if err != nil {
		return settings{}, err
	}
	if flags.configDir != "" {
		dirs.Config = flags.configDir
	}

	cfg, err := config.Load(dirs.SettingsPath())
	if err != nil {
		return settings{}, err
	}
	if err := cfg.Validate(); err != nil {
		return settings{}, fmt.Errorf("invalid %s:\n%w", dirs.SettingsPath(), err)
	}
	if flags.dataDir == "" && cfg.Paths.DataDir != "" {
		dirs.Data = cfg.Paths.DataDir
	}
	return settings{dirs: dirs, cfg: cfg}, nil
}

// envOptions selects where events and output go for one invocation.
type envOptions struct {
	flags globalFlags
	// logToFile sends the application log to <data>/typewinner.log, used
	// while the TUI owns the terminal.
	logToFile bool
	// browser opens the output log and run history. Commands that only
	// touch settings leave it off so they create no session files.
	browser  bool
	notifier notify.Notifier
	output   supervisor.OutputSink
}

// env holds the services built once per process and passed explicitly.
type env struct {
	settings
	log     *zap.Logger
	app     *app.App
	sync    *typing.Sync
	outLog  *store.JSONL
	history *store.History
	webhook *notify.Webhook
}

// newEnv wires the application. Call close when done.
func newEnv(ctx context.Context, opts envOptions) (*env, error) {
	s, err := loadSettings(opts.flags)
	if err != nil {
		return nil, err
	}

	logOpts := logging.Options{Level: s.cfg.Log.Level, Verbose: opts.flags.verbose}
	if opts.logToFile {
		logOpts.File = filepath.Join(s.dirs.Data, logging.FileName)
	}
	log, err := logging.New(logOpts)
	if err != nil {
		return nil, err
	}

	e := &env{settings: s, log: log, sync: typing.NewSync(s.dirs.Config)}

	sinks := []supervisor.OutputSink{opts.output}
	var history app.RunRecorder
	if opts.browser {
		if err := store.EnforceRetention(s.dirs.LogDir(), s.cfg.Log.Retention); err != nil {
			log.Warn("output log retention", zap.Error(err))
		}
		e.outLog, err = store.NewJSONL(s.dirs.LogDir(), log.Named("output"))
		if err != nil {
			e.close()
			return nil, err
		}
		e.history, err = store.OpenHistory(ctx, filepath.Join(s.dirs.Data, store.HistoryFile))
		if err != nil {
			e.close()
			return nil, err
		}
		sinks = append(sinks, e.outLog)
		history = e.history
	}

	notifiers := notify.Multi{opts.notifier}
	if n := s.cfg.Notifications; n.URL != "" {
		e.webhook = notify.NewWebhook(n.URL, notify.WebhookOptions{
			OnOpening:       n.OnOpening,
			OnEnabled:       n.OnEnabled,
			OnChromeMissing: n.OnChromeMissing,
		}, log.Named("webhook"))
		notifiers = append(notifiers, e.webhook)
	}

	e.app, err = app.New(app.Deps{
		Store:   typing.NewStore(initialTyping(e.sync, s.cfg, log)),
		Sync:    e.sync,
		Probe:   locate.New(),
		Secret:  secret.NewStore(s.dirs.Config),
		DataDir: s.dirs.Data,
		Overrides: app.Overrides{
			Runtime: s.cfg.Paths.Runtime,
			Target:  s.cfg.Paths.Target,
			Script:  s.cfg.Paths.Script,
		},
		Notifier: notifiers,
		Output:   supervisor.Tee(sinks...),
		History:  history,
		Log:      log,
	})
	if err != nil {
		e.close()
		return nil, err
	}

	log.Debug("wired",
		zap.String("config_dir", s.dirs.Config),
		zap.String("data_dir", s.dirs.Data),
		zap.Bool("browser", opts.browser))
	return e, nil
}

// initialTyping picks the startup typing config: the last persisted
// typeConfig.json, else the [typing] defaults from typewinner.toml.
func initialTyping(sync *typing.Sync, cfg *config.Config, log *zap.Logger) typing.Config {
	fallback := cfg.Typing.Typing()
	saved, ok, err := sync.Load()
	switch {
	case err != nil:
		log.Warn("ignoring unreadable typing config", zap.String("path", sync.Path()), zap.Error(err))
		return fallback
	case !ok:
		return fallback
	}
	if err := saved.Validate(); err != nil {
		log.Warn("ignoring invalid typing config", zap.String("path", sync.Path()), zap.Error(err))
		return fallback
	}
	return saved
}

// close flushes pending notifications and releases files. It does not
// touch a running browser; use app.Quit or app.Shutdown first.
func (e *env) close() error {
	var errs []error
	if e.webhook != nil {
		e.webhook.Flush()
	}
	if e.outLog != nil {
		errs = append(errs, e.outLog.Close())
	}
	if e.history != nil {
		errs = append(errs, e.history.Close())
	}
	_ = e.log.Sync()
	return errors.Join(errs...)
}
