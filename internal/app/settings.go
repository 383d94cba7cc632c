package app

import (
	"go.uber.org/zap"

	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/secret"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/typing"
)

// TypingConfig returns the current typing parameters.
func (a *App) TypingConfig() typing.Config { return a.store.Get() }

// ConfigPath is the file handed to the automation script.
func (a *App) ConfigPath() string { return a.sync.Path() }

// UpdateTypeSpeed sets the speed range and persists it. Out-of-range input
// returns typing.ErrInvalidSpeed and changes nothing.
func (a *App) UpdateTypeSpeed(minSpeed, maxSpeed uint32) (typing.Config, error) {
	a.cfgMu.Lock()
	defer a.cfgMu.Unlock()

	cfg, err := a.store.SetSpeed(minSpeed, maxSpeed)
	if err != nil {
		return a.store.Get(), err
	}
	if err := a.sync.Persist(cfg); err != nil {
		return cfg, err
	}
	a.log.Debug("type speed updated",
		zap.Uint32("min_speed", minSpeed), zap.Uint32("max_speed", maxSpeed),
		zap.Uint32("min_delay", cfg.MinDelay), zap.Uint32("max_delay", cfg.MaxDelay))
	return cfg, nil
}

// UpdateErrRate sets the error rate and persists it.
func (a *App) UpdateErrRate(rate uint32) (typing.Config, error) {
	a.cfgMu.Lock()
	defer a.cfgMu.Unlock()

	cfg := a.store.SetErrorRate(rate)
	if err := a.sync.Persist(cfg); err != nil {
		return cfg, err
	}
	a.log.Debug("error rate updated", zap.Uint32("error_rate", rate))
	return cfg, nil
}

// ApplyExternal adopts a config written to the file by another program.
// It reports whether the in-memory state changed. Invalid configs are
// ignored.
func (a *App) ApplyExternal(cfg typing.Config) bool {
	a.cfgMu.Lock()
	defer a.cfgMu.Unlock()

	if cfg == a.store.Get() {
		return false
	}
	if err := a.store.Replace(cfg); err != nil {
		a.log.Warn("ignoring external config", zap.Error(err))
		return false
	}
	a.log.Info("config changed on disk",
		zap.Uint32("min_delay", cfg.MinDelay),
		zap.Uint32("max_delay", cfg.MaxDelay),
		zap.Uint32("error_rate", cfg.ErrorRate))
	return true
}

// SaveAPIKey stores the automation API key.
func (a *App) SaveAPIKey(key string) error {
	if err := a.secret.Save(key); err != nil {
		return err
	}
	a.log.Info("api key saved", zap.String("key", secret.Redact(key)))
	return nil
}

// GetAPIKey returns the stored key; ok is false when none is saved.
func (a *App) GetAPIKey() (key string, ok bool, err error) {
	return a.secret.Load()
}
