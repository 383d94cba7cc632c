package typing

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidSpeed is returned by SetSpeed when the requested range cannot be
// inverted into valid delays.
var ErrInvalidSpeed = errors.New("typing: invalid speed range")

// Store holds the current Config in memory. It is safe for concurrent use.
type Store struct {
	mu  sync.RWMutex
	cfg Config
}

// NewStore creates a Store seeded with initial. An invalid initial config is
// replaced by Defaults.
func NewStore(initial Config) *Store {
	if initial.Validate() != nil {
		initial = Defaults()
	}
	return &Store{cfg: initial}
}

// Get returns a snapshot of the current configuration.
func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// SetSpeed stores a UI speed range as delays: a faster speed means a shorter
// delay, so minDelay = DelayCeiling - maxSpeed and maxDelay = DelayCeiling -
// minSpeed. Ranges with minSpeed > maxSpeed or maxSpeed > DelayCeiling are
// rejected with ErrInvalidSpeed and leave the store untouched. The returned
// Config is the snapshot taken under the same lock as the mutation.
func (s *Store) SetSpeed(minSpeed, maxSpeed uint32) (Config, error) {
	if minSpeed > maxSpeed || maxSpeed > DelayCeiling {
		return Config{}, fmt.Errorf("%w: min %d, max %d (want 0 <= min <= max <= %d)",
			ErrInvalidSpeed, minSpeed, maxSpeed, DelayCeiling)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.MinDelay = DelayCeiling - maxSpeed
	s.cfg.MaxDelay = DelayCeiling - minSpeed
	return s.cfg, nil
}

// SetErrorRate stores rate verbatim and returns the resulting snapshot.
func (s *Store) SetErrorRate(rate uint32) Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.ErrorRate = rate
	return s.cfg
}

// Replace swaps in cfg wholesale after validating it.
func (s *Store) Replace(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}
