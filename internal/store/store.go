// Package store keeps what browser runs leave behind: their output lines in
// an append-only JSONL session log, and a run history in SQLite. One
// session log is created per typewinner invocation in
// cmd/typewinner/wiring.go and shared by every run started from it.
package store

import "time"

// Record is one line of subprocess output.
type Record struct {
	Time   time.Time `json:"time"`
	RunID  string    `json:"run"`
	Stream string    `json:"stream"`
	Text   string    `json:"text"`
}

// RunSpan summarises the output of one run in the session log.
type RunSpan struct {
	RunID   string
	Lines   int
	Stderr  int
	FirstAt time.Time
	LastAt  time.Time
}
