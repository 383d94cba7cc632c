package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user config and data directories.
const AppName = "TypeWinner"

// Dirs holds the application directories.
type Dirs struct {
	Config string
	Data   string
}

// SettingsPath is the typewinner.toml location.
func (d Dirs) SettingsPath() string { return filepath.Join(d.Config, FileName) }

// LogDir holds output logs.
func (d Dirs) LogDir() string { return filepath.Join(d.Data, "logs") }

// DefaultDirs resolves the platform directories. dataOverride, when set,
// replaces the data directory.
func DefaultDirs(dataOverride string) (Dirs, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return Dirs{}, fmt.Errorf("config: locate config dir: %w", err)
	}
	d := Dirs{
		Config: filepath.Join(base, AppName),
		Data:   filepath.Join(DataHome(runtime.GOOS, os.Getenv, os.UserHomeDir, base), AppName),
	}
	if dataOverride != "" {
		d.Data = dataOverride
	}
	return d, nil
}

// DataHome returns the per-user data directory: $XDG_DATA_HOME or
// ~/.local/share on Linux and the BSDs, configBase elsewhere (Application
// Support on macOS, %AppData% on Windows).
func DataHome(goos string, getenv func(string) string, home func() (string, error), configBase string) string {
	switch goos {
	case "darwin", "windows", "ios", "plan9":
		return configBase
	}
	if v := getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	h, err := home()
	if err != nil || h == "" {
		return "."
	}
	return filepath.Join(h, ".local", "share")
}
