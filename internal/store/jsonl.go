package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/supervisor"
)

// JSONL is an append-only session log of browser output. Each line is a
// JSON-serialized Record. It accepts lines straight from the supervisor.
//
// Session identity: "<unix-timestamp>-<pid>.jsonl".
type JSONL struct {
	file      *os.File
	mu        sync.Mutex
	idx       *runIndex
	sessionID string
	log       *zap.Logger
}

// NewJSONL creates the session log in dir, creating dir if needed.
func NewJSONL(dir string, log *zap.Logger) (*JSONL, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: mkdir %q: %w", dir, err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	sessionID := fmt.Sprintf("%d-%d", time.Now().Unix(), os.Getpid())
	path := filepath.Join(dir, sessionID+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", path, err)
	}
	return &JSONL{
		file:      f,
		idx:       newRunIndex(),
		sessionID: sessionID,
		log:       log,
	}, nil
}

// SessionID returns the session file's base name without extension.
func (j *JSONL) SessionID() string { return j.sessionID }

// Path returns the session file path.
func (j *JSONL) Path() string { return j.file.Name() }

// Append writes rec as one JSON line. Safe for concurrent use.
func (j *JSONL) Append(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: marshal: %w", err)
	}
	data = append(data, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.file.Write(data); err != nil {
		return fmt.Errorf("store: write: %w", err)
	}
	j.idx.onAppend(rec)
	return nil
}

// Line implements supervisor.OutputSink. Write failures are logged.
func (j *JSONL) Line(runID string, stream supervisor.Stream, text string) {
	rec := Record{Time: time.Now(), RunID: runID, Stream: stream.String(), Text: text}
	if err := j.Append(rec); err != nil {
		j.log.Warn("output log append", zap.String("run", runID), zap.Error(err))
	}
}

// Close syncs and closes the file.
func (j *JSONL) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.file.Sync(); err != nil {
		_ = j.file.Close()
		return fmt.Errorf("store: sync: %w", err)
	}
	return j.file.Close()
}

// Runs returns a summary per run seen in this session, oldest first.
func (j *JSONL) Runs() []RunSpan {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.idx.summaries()
}

// Run returns the summary of one run. ok is false when the run has written
// nothing.
func (j *JSONL) Run(runID string) (span RunSpan, ok bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if sp, found := j.idx.spans[runID]; found {
		return *sp, true
	}
	return RunSpan{}, false
}

// decodeRecords parses JSONL from r keeping records of runID (all when
// runID is empty). Malformed lines are skipped.
func decodeRecords(r io.Reader, runID string, log *zap.Logger) ([]Record, error) {
	var out []Record
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 2*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			log.Warn("skipping malformed output line", zap.Error(err))
			continue
		}
		if runID == "" || rec.RunID == runID {
			out = append(out, rec)
		}
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("store: scan: %w", err)
	}
	return out, nil
}

// ReadSession loads records from a session file written by JSONL. A
// non-empty runID filters the result.
func ReadSession(path, runID string, log *zap.Logger) ([]Record, error) {
	if log == nil {
		log = zap.NewNop()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", path, err)
	}
	defer f.Close()
	return decodeRecords(f, runID, log)
}

// Sessions lists session files in dir, oldest first. A missing dir yields
// no sessions.
func Sessions(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read dir %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".jsonl") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files) // timestamp-prefixed names sort chronologically
	return files, nil
}

// EnforceRetention removes the oldest session files in dir, keeping at most
// maxKeep. maxKeep <= 0 keeps everything.
func EnforceRetention(dir string, maxKeep int) error {
	if maxKeep <= 0 {
		return nil
	}
	files, err := Sessions(dir)
	if err != nil {
		return err
	}
	for i := 0; i < len(files)-maxKeep; i++ {
		if err := os.Remove(files[i]); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("store: remove %q: %w", files[i], err)
		}
	}
	return nil
}
