package tui

import (
	"time"

	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/supervisor"
)

// OutputLine is one line of browser process output shown in the log.
type OutputLine struct {
	At     time.Time
	RunID  string
	Stream supervisor.Stream
	Text   string
}

// OutputChannel is a supervisor.OutputSink feeding the TUI. Lines are
// dropped while the TUI is behind; the full output is in the output log.
type OutputChannel chan OutputLine

// Line implements supervisor.OutputSink without blocking.
func (c OutputChannel) Line(runID string, stream supervisor.Stream, text string) {
	select {
	case c <- OutputLine{At: time.Now(), RunID: runID, Stream: stream, Text: text}:
	default:
	}
}
