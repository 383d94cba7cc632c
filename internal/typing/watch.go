package typing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchDebounce batches the create/write/rename burst of a single save.
const watchDebounce = 150 * time.Millisecond

// Watch reports edits made to the config file by other programs. It blocks
// until ctx is done. onChange receives every config that parses; files that
// fail to parse (e.g. caught mid-write) are logged and skipped.
//
// The directory is watched rather than the file because Persist replaces
// the file by rename.
func (s *Sync) Watch(ctx context.Context, log *zap.Logger, onChange func(Config)) error {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return &IOError{Op: "create config dir", Path: s.dir, Err: err}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("typing: watch: %w", err)
	}
	defer w.Close()

	if err := w.Add(s.dir); err != nil {
		return fmt.Errorf("typing: watch %s: %w", s.dir, err)
	}
	log.Debug("watching config file", zap.String("path", s.path))

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != FileName {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			fire = time.After(watchDebounce)

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watch error", zap.Error(werr))

		case <-fire:
			fire = nil
			cfg, found, loadErr := s.Load()
			if loadErr != nil {
				log.Warn("ignoring unreadable config file", zap.Error(loadErr))
				continue
			}
			if found {
				onChange(cfg)
			}
		}
	}
}
