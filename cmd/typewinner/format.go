package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/app"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/notify"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/store"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/supervisor"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/typing"
)

// shortRun trims a run ID for display.
func shortRun(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatEvent(e notify.Event) string {
	var b strings.Builder
	at := e.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	fmt.Fprintf(&b, "%s  %s", at.Format("15:04:05"), e.Kind)
	if e.RunID != "" {
		fmt.Fprintf(&b, "  run %s", shortRun(e.RunID))
	}
	if e.Payload != "" {
		fmt.Fprintf(&b, "  %s", e.Payload)
	}
	return b.String()
}

func formatOutput(at time.Time, runID string, stream supervisor.Stream, text string) string {
	return fmt.Sprintf("%s  [%s %s] %s", at.Format("15:04:05"), shortRun(runID), stream, text)
}

func formatTyping(cfg typing.Config, path string) string {
	minSpeed, maxSpeed := cfg.Speeds()
	var b strings.Builder
	b.WriteString("Typing\n")
	b.WriteString("──────\n")
	fmt.Fprintf(&b, "  %-12s %d-%d ms per key\n", "delay:", cfg.MinDelay, cfg.MaxDelay)
	fmt.Fprintf(&b, "  %-12s %d-%d\n", "speed:", minSpeed, maxSpeed)
	fmt.Fprintf(&b, "  %-12s %d%%\n", "error rate:", cfg.ErrorRate)
	if path != "" {
		fmt.Fprintf(&b, "  %-12s %s\n", "file:", path)
	}
	return b.String()
}

func formatDoctor(checks []app.Check) string {
	var b strings.Builder
	b.WriteString("Doctor\n")
	b.WriteString("──────\n")
	for _, c := range checks {
		symbol := "✓"
		if !c.OK {
			symbol = "✗"
		}
		switch {
		case c.OK:
			fmt.Fprintf(&b, "  %s %-14s %s\n", symbol, c.Name, c.Path)
		case os.IsNotExist(c.Err) && c.Path != "":
			fmt.Fprintf(&b, "  %s %-14s not set (%s)\n", symbol, c.Name, c.Path)
		case len(c.Checked) > 0:
			fmt.Fprintf(&b, "  %s %-14s not found; checked:\n", symbol, c.Name)
			for _, p := range c.Checked {
				fmt.Fprintf(&b, "      %s\n", p)
			}
		default:
			fmt.Fprintf(&b, "  %s %-14s %v\n", symbol, c.Name, c.Err)
		}
	}
	return b.String()
}

// requiredFailures counts failed checks a browser run cannot do without.
func requiredFailures(checks []app.Check) int {
	var n int
	for _, c := range checks {
		switch c.Name {
		case app.ComponentTarget, app.ComponentScript, app.ComponentRuntime:
			if !c.OK {
				n++
			}
		}
	}
	return n
}

// formatRunSummary reports how much output a finished run produced.
func formatRunSummary(runID string, span store.RunSpan, ok bool) string {
	if !ok || span.Lines == 0 {
		return fmt.Sprintf("run %s: no output", shortRun(runID))
	}
	return fmt.Sprintf("run %s: %s of output (%d on stderr)",
		shortRun(runID), humanize.Comma(int64(span.Lines))+plural(span.Lines, " line", " lines"), span.Stderr)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func formatHistory(runs []store.Run, now time.Time) string {
	if len(runs) == 0 {
		return "No runs recorded yet. Open the browser with 'typewinner open' or from the TUI.\n"
	}
	var b strings.Builder
	b.WriteString("Runs\n")
	b.WriteString("────\n")
	for _, r := range runs {
		started := humanize.RelTime(r.StartedAt, now, "ago", "from now")
		fmt.Fprintf(&b, "  %s  %-16s  %s\n", shortRun(r.ID), started, runOutcome(r))
	}
	return b.String()
}

func runOutcome(r store.Run) string {
	switch {
	case !r.Finished():
		return "running or interrupted"
	case r.Err != "":
		return "failed: " + r.Err
	case r.Killed:
		return fmt.Sprintf("closed after %s", formatDuration(r.EndedAt.Sub(r.StartedAt)))
	case r.Code != 0:
		return fmt.Sprintf("exited %d after %s", r.Code, formatDuration(r.EndedAt.Sub(r.StartedAt)))
	default:
		return fmt.Sprintf("finished after %s", formatDuration(r.EndedAt.Sub(r.StartedAt)))
	}
}

// formatDuration renders d as "1h2m", "3m4s" or "5s".
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm%ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// sessionInfo describes one output log file.
type sessionInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
}

func formatSessions(sessions []sessionInfo, now time.Time) string {
	if len(sessions) == 0 {
		return "No output logs yet.\n"
	}
	var b strings.Builder
	b.WriteString("Output logs\n")
	b.WriteString("───────────\n")
	for _, s := range sessions {
		fmt.Fprintf(&b, "  %-28s %8s  %s\n",
			filepath.Base(s.Path), humanize.Bytes(uint64(s.Size)), humanize.RelTime(s.ModTime, now, "ago", "from now"))
	}
	return b.String()
}

func formatRecords(recs []store.Record) string {
	if len(recs) == 0 {
		return "No output recorded.\n"
	}
	var b strings.Builder
	for _, r := range recs {
		fmt.Fprintf(&b, "%s  [%s %s] %s\n", r.Time.Local().Format("2006-01-02 15:04:05"), shortRun(r.RunID), r.Stream, r.Text)
	}
	return b.String()
}
