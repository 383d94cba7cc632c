package typing

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the name of the config file the automation script reads.
const FileName = "typeConfig.json"

// IOError reports a failed read or write of a persisted file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("typing: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Sync mirrors a Config to FileName inside dir.
type Sync struct {
	dir  string
	path string
}

// NewSync creates a Sync writing to dir/typeConfig.json. The directory is
// created on first Persist.
func NewSync(dir string) *Sync {
	return &Sync{dir: dir, path: filepath.Join(dir, FileName)}
}

// Path returns the config file path handed to the automation script.
func (s *Sync) Path() string { return s.path }

// Dir returns the directory holding the config file.
func (s *Sync) Dir() string { return s.dir }

// Persist overwrites the config file with cfg. The data is written to a
// temp file in the same directory and renamed into place, so the script
// never reads a half-written file.
func (s *Sync) Persist(cfg Config) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return &IOError{Op: "create config dir", Path: s.dir, Err: err}
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return &IOError{Op: "marshal config", Path: s.path, Err: err}
	}

	tmp, err := os.CreateTemp(s.dir, ".typeConfig-*.tmp")
	if err != nil {
		return &IOError{Op: "write config", Path: s.path, Err: err}
	}
	if _, writeErr := tmp.Write(data); writeErr != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &IOError{Op: "write config", Path: s.path, Err: writeErr}
	}
	if closeErr := tmp.Close(); closeErr != nil {
		os.Remove(tmp.Name())
		return &IOError{Op: "write config", Path: s.path, Err: closeErr}
	}
	if renameErr := os.Rename(tmp.Name(), s.path); renameErr != nil {
		os.Remove(tmp.Name())
		return &IOError{Op: "write config", Path: s.path, Err: renameErr}
	}
	return nil
}

// Load reads the config file. ok is false (with a nil error) when the file
// does not exist yet.
func (s *Sync) Load() (cfg Config, ok bool, err error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, false, nil
		}
		return Config{}, false, &IOError{Op: "read config", Path: s.path, Err: err}
	}
	if jsonErr := json.Unmarshal(data, &cfg); jsonErr != nil {
		return Config{}, false, &IOError{Op: "parse config", Path: s.path, Err: jsonErr}
	}
	return cfg, true, nil
}
