package tui

// BrowserState is what the TUI believes the browser is doing.
type BrowserState int

const (
	StateIdle        BrowserState = iota // ready to open
	StateOpening                         // launch requested, not yet confirmed
	StateRunning                         // browser process alive
	StateUnavailable                     // Chrome not found at startup
)

var validTransitions = map[BrowserState][]BrowserState{
	StateIdle:        {StateOpening, StateRunning, StateUnavailable},
	StateOpening:     {StateRunning, StateIdle},
	StateRunning:     {StateIdle},
	StateUnavailable: {StateOpening, StateIdle},
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s BrowserState) CanTransitionTo(next BrowserState) bool {
	for _, valid := range validTransitions[s] {
		if valid == next {
			return true
		}
	}
	return false
}

// CanOpen reports whether the open key does anything in s.
func (s BrowserState) CanOpen() bool { return s.CanTransitionTo(StateOpening) }

// Label returns a short uppercase label for the state.
func (s BrowserState) Label() string {
	switch s {
	case StateIdle:
		return "READY"
	case StateOpening:
		return "OPENING"
	case StateRunning:
		return "RUNNING"
	case StateUnavailable:
		return "NO CHROME"
	default:
		return "UNKNOWN"
	}
}

// Symbol returns a single-character symbol representing the state.
func (s BrowserState) Symbol() string {
	switch s {
	case StateIdle:
		return "✓"
	case StateOpening:
		return "…"
	case StateRunning:
		return "●"
	case StateUnavailable:
		return "✗"
	default:
		return "?"
	}
}

// FocusTarget identifies which panel holds keyboard focus.
type FocusTarget int

const (
	FocusControls FocusTarget = iota
	FocusLog
)

// Next toggles between the two panels.
func (f FocusTarget) Next() FocusTarget { return (f + 1) % 2 }

func (f FocusTarget) String() string {
	switch f {
	case FocusControls:
		return "controls"
	case FocusLog:
		return "log"
	default:
		return "unknown"
	}
}
