// Package notify delivers browser lifecycle events to whoever is listening:
// the TUI, a webhook, or both. Delivery is fire-and-forget; a notifier
// never blocks or fails the operation that emitted the event.
package notify

import (
	"time"

	"go.uber.org/zap"
)

// Kind identifies an event.
type Kind int

const (
	// Opening is sent once the browser launch has been committed to.
	Opening Kind = iota
	// Enabled is sent exactly once after a browser process has gone away,
	// whether it exited or was killed. The UI may offer "open" again.
	Enabled
	// ChromeMissing is sent at startup when no Chrome install was found.
	ChromeMissing
)

// String returns the wire name of the event.
func (k Kind) String() string {
	switch k {
	case Opening:
		return "browser-opening"
	case Enabled:
		return "enableBrowser"
	case ChromeMissing:
		return "chrome-error"
	default:
		return "unknown"
	}
}

// Event is a single notification. Payload is optional free text.
type Event struct {
	Kind      Kind
	Payload   string
	RunID     string
	Timestamp time.Time
}

// New returns an event of kind k stamped with the current time.
func New(k Kind, payload string) Event {
	return Event{Kind: k, Payload: payload, Timestamp: time.Now()}
}

// WithRun returns a copy of e tagged with a run ID.
func (e Event) WithRun(id string) Event {
	e.RunID = id
	return e
}

// Notifier receives events. Emit must not block for long and must not
// panic; errors are the notifier's own business.
type Notifier interface {
	Emit(Event)
}

// Func adapts a function to Notifier.
type Func func(Event)

// Emit calls f(e).
func (f Func) Emit(e Event) { f(e) }

// Multi fans an event out to several notifiers in order. Nil entries are
// skipped.
type Multi []Notifier

// Emit forwards e to every notifier.
func (m Multi) Emit(e Event) {
	for _, n := range m {
		if n != nil {
			n.Emit(e)
		}
	}
}

// Nop discards every event.
var Nop Notifier = Func(func(Event) {})

// Channel delivers events into a buffered channel without blocking. When
// the channel is full or nil the event is dropped and a warning logged.
type Channel struct {
	ch  chan<- Event
	log *zap.Logger
}

// NewChannel returns a Channel sending into ch.
func NewChannel(ch chan<- Event, log *zap.Logger) *Channel {
	if log == nil {
		log = zap.NewNop()
	}
	return &Channel{ch: ch, log: log}
}

// Emit sends e if there is room.
func (c *Channel) Emit(e Event) {
	if c.ch == nil {
		c.log.Warn("event dropped: no listener", zap.Stringer("event", e.Kind))
		return
	}
	select {
	case c.ch <- e:
	default:
		c.log.Warn("event dropped: listener busy", zap.Stringer("event", e.Kind))
	}
}
