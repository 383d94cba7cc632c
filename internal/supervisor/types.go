package supervisor

import (
	"errors"
	"fmt"
	"time"
)

// ErrAlreadyRunning is returned by Spawn while a process occupies the slot.
var ErrAlreadyRunning = errors.New("supervisor: a browser process is already running")

// Command describes the process to start. ID becomes the run ID; a random
// one is generated when empty.
type Command struct {
	ID   string
	Path string
	Args []string
	Dir  string
	Env  []string
}

// RunInfo identifies a running process.
type RunInfo struct {
	ID        string
	Path      string
	Args      []string
	PID       int
	StartedAt time.Time
}

// Exit is the outcome of one process lifecycle.
type Exit struct {
	RunID     string
	Code      int
	Killed    bool
	Err       error
	StartedAt time.Time
	EndedAt   time.Time
}

// Duration is how long the process was tracked.
func (e Exit) Duration() time.Duration { return e.EndedAt.Sub(e.StartedAt) }

// SpawnError reports that the process could not be started.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("supervisor: spawn %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// WaitError reports that waiting on a started process failed for a reason
// other than a non-zero exit status.
type WaitError struct {
	RunID string
	Err   error
}

func (e *WaitError) Error() string {
	return fmt.Sprintf("supervisor: wait %s: %v", e.RunID, e.Err)
}

func (e *WaitError) Unwrap() error { return e.Err }

// Stream names an output pipe.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// OutputSink receives the process output one line at a time. Line is
// called from the monitor goroutines, possibly concurrently for the two
// streams.
type OutputSink interface {
	Line(runID string, stream Stream, text string)
}

// SinkFunc adapts a function to OutputSink.
type SinkFunc func(runID string, stream Stream, text string)

// Line calls f.
func (f SinkFunc) Line(runID string, stream Stream, text string) { f(runID, stream, text) }

// Tee returns a sink that forwards each line to every non-nil sink.
func Tee(sinks ...OutputSink) OutputSink {
	var live []OutputSink
	for _, s := range sinks {
		if s != nil {
			live = append(live, s)
		}
	}
	return SinkFunc(func(runID string, stream Stream, text string) {
		for _, s := range live {
			s.Line(runID, stream, text)
		}
	})
}
