// Package config parses typewinner.toml application settings.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/typing"
)

// FileName is the settings file inside the config directory.
const FileName = "typewinner.toml"

// DefaultAccentColor is the default TUI accent color (indigo).
const DefaultAccentColor = "#7D56F4"

// hexColorRe matches a 6-digit hex color string like "#7D56F4".
var hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Config is the top-level typewinner.toml configuration.
type Config struct {
	Paths         PathsConfig         `toml:"paths"`
	Typing        TypingConfig        `toml:"typing"`
	Notifications NotificationsConfig `toml:"notifications"`
	TUI           TUIConfig           `toml:"tui"`
	Log           LogConfig           `toml:"log"`
}

// PathsConfig overrides discovery. Empty values mean "search as usual".
type PathsConfig struct {
	Runtime string `toml:"runtime"`  // node binary
	Target  string `toml:"target"`   // Chrome binary
	Script  string `toml:"script"`   // automation script
	DataDir string `toml:"data_dir"` // browser profile, logs and history
}

// TypingConfig seeds the typing parameters when no typeConfig.json exists.
type TypingConfig struct {
	MinDelay  uint32 `toml:"min_delay"`
	MaxDelay  uint32 `toml:"max_delay"`
	ErrorRate uint32 `toml:"error_rate"`
}

// Typing converts to the runtime representation.
func (t TypingConfig) Typing() typing.Config {
	return typing.Config{MinDelay: t.MinDelay, MaxDelay: t.MaxDelay, ErrorRate: t.ErrorRate}
}

// NotificationsConfig controls webhook/ntfy.sh notifications.
type NotificationsConfig struct {
	URL             string `toml:"url"`
	OnOpening       bool   `toml:"on_opening"`
	OnEnabled       bool   `toml:"on_enabled"`
	OnChromeMissing bool   `toml:"on_chrome_missing"`
}

// TUIConfig controls the terminal UI appearance.
type TUIConfig struct {
	AccentColor string `toml:"accent_color"`
}

// LogConfig controls the application log and output log retention.
type LogConfig struct {
	Level     string `toml:"level"`
	Retention int    `toml:"retention"` // number of output logs to keep; 0 = unlimited
}

// Validate returns every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Typing.Typing().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("typing: min_delay <= max_delay <= %d required", typing.DelayCeiling))
	}

	if c.TUI.AccentColor != "" && !hexColorRe.MatchString(c.TUI.AccentColor) {
		errs = append(errs, fmt.Errorf("tui.accent_color must be a hex color (e.g. \"#7D56F4\")"))
	}

	if c.Log.Retention < 0 {
		errs = append(errs, fmt.Errorf("log.retention must be >= 0 (0 = unlimited)"))
	}
	if c.Log.Level != "" {
		if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
			errs = append(errs, fmt.Errorf("log.level %q is not a valid level", c.Log.Level))
		}
	}

	if c.Notifications.URL != "" {
		u, parseErr := url.ParseRequestURI(c.Notifications.URL)
		if parseErr != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, fmt.Errorf("notifications.url must be a valid http or https URL"))
		}
	}

	return errors.Join(errs...)
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	d := typing.Defaults()
	return Config{
		Typing: TypingConfig{
			MinDelay:  d.MinDelay,
			MaxDelay:  d.MaxDelay,
			ErrorRate: d.ErrorRate,
		},
		Notifications: NotificationsConfig{
			OnEnabled:       true,
			OnChromeMissing: true,
		},
		TUI: TUIConfig{
			AccentColor: DefaultAccentColor,
		},
		Log: LogConfig{
			Level:     "info",
			Retention: 20,
		},
	}
}

// Load reads the settings file at path. A missing file yields Defaults.
// Unknown keys (likely typos) are an error.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	meta, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, os.ErrNotExist) {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: unknown keys in %s: %s (possible typos?)", path, strings.Join(keys, ", "))
	}

	return &cfg, nil
}

// InitFile writes a commented template into dir.
func InitFile(dir string) (string, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config: %s already exists at %s", FileName, path)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("config: create %s: %w", dir, err)
	}

	content := `# typewinner.toml

[paths]
runtime = ""   # node binary; empty = $PATH, then common install locations
target = ""    # Google Chrome binary; empty = standard install locations
script = ""    # puppeteer-node.cjs; empty = bundled resources, then ./src/main/utils
data_dir = ""  # browser profile, output logs and history; empty = platform data dir

[typing]
# Used only until the first change is saved to typeConfig.json.
min_delay = 20
max_delay = 25
error_rate = 0

[notifications]
url = ""                  # ntfy.sh topic URL or any HTTP webhook (empty = disabled)
on_opening = false        # browser launch started
on_enabled = true         # browser closed, ready to open again
on_chrome_missing = true  # no Chrome found at startup

[tui]
accent_color = "#7D56F4"

[log]
level = "info"   # debug, info, warn, error
retention = 20   # output logs to keep; 0 = unlimited
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("config: write %s: %w", path, err)
	}
	return path, nil
}
