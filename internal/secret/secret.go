// Package secret stores the user's automation API key in a private file
// under the config directory.
package secret

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the key file inside the config directory.
const FileName = "grokKey"

// Store reads and writes the API key file.
type Store struct {
	path string
}

// NewStore returns a Store keeping the key in dir/FileName.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, FileName)}
}

// Path returns the key file location.
func (s *Store) Path() string { return s.path }

// Save writes key, replacing any previous value. The directory is created
// 0700 and the file 0600.
func (s *Store) Save(key string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("secret: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".grokKey-*.tmp")
	if err != nil {
		return fmt.Errorf("secret: write key: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(key); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("secret: write key: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("secret: write key: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("secret: write key: %w", err)
	}
	return nil
}

// Load returns the stored key. ok is false when no key has been saved.
// Trailing newlines left by editors are dropped.
func (s *Store) Load() (key string, ok bool, err error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("secret: read key: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), true, nil
}

// Redact masks all but the last four characters of key for display.
func Redact(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
