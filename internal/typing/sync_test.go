package typing

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestPersist_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "TypeWinner")
	s := NewSync(dir)
	want := Config{MinDelay: 370, MaxDelay: 390, ErrorRate: 55}

	if err := s.Persist(want); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	got, ok, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("Load reported missing file after Persist")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestPersist_WireFormat(t *testing.T) {
	s := NewSync(t.TempDir())
	if err := s.Persist(Config{MinDelay: 1, MaxDelay: 2, ErrorRate: 3}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("file is not JSON: %v", err)
	}
	want := map[string]any{"minDelay": 1.0, "maxDelay": 2.0, "errorRate": 3.0}
	if diff := cmp.Diff(want, raw); diff != "" {
		t.Errorf("wire format mismatch (-want +got):\n%s", diff)
	}
}

func TestPersist_OverwritesAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewSync(dir)
	for i := uint32(0); i < 5; i++ {
		if err := s.Persist(Config{MinDelay: i, MaxDelay: i + 1, ErrorRate: i}); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != FileName {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("dir entries = %v, want only %s", names, FileName)
	}

	got, _, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if got.ErrorRate != 4 {
		t.Errorf("ErrorRate = %d, want last written value 4", got.ErrorRate)
	}
}

func TestPersist_DirIsFile(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewSync(filepath.Join(blocker, "sub"))
	err := s.Persist(Defaults())
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("err = %v, want *IOError", err)
	}
}

func TestLoad_Missing(t *testing.T) {
	s := NewSync(t.TempDir())
	_, ok, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("ok = true for missing file")
	}
}

func TestLoad_Corrupt(t *testing.T) {
	s := NewSync(t.TempDir())
	if err := os.WriteFile(s.Path(), []byte(`{"minDelay": 2`), 0644); err != nil {
		t.Fatal(err)
	}
	_, _, err := s.Load()
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("err = %v, want *IOError", err)
	}
	if ioErr.Op != "parse config" {
		t.Errorf("Op = %q, want %q", ioErr.Op, "parse config")
	}
}

func TestWatch_ReportsExternalEdit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("rename-heavy fsnotify behaviour differs on windows")
	}
	s := NewSync(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan Config, 16)
	done := make(chan error, 1)
	go func() {
		done <- s.Watch(ctx, nil, func(c Config) {
			select {
			case changes <- c:
			default:
			}
		})
	}()

	want := Config{MinDelay: 100, MaxDelay: 200, ErrorRate: 7}
	data, _ := json.Marshal(want)

	// The watcher may not be registered yet; keep writing until it reports.
	deadline := time.Now().Add(5 * time.Second)
	var got Config
	for found := false; !found; {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for watch callback")
		}
		if err := os.WriteFile(s.Path(), data, 0644); err != nil {
			t.Fatal(err)
		}
		select {
		case got = <-changes:
			found = true
		case <-time.After(300 * time.Millisecond):
		}
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
