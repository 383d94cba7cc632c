package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/app"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/config"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/notify"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/secret"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/store"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/supervisor"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/typing"
)

// runCLI executes the root command with isolated config and data
// directories and returns its stdout.
func runCLI(t *testing.T, configDir, dataDir, stdin string, args ...string) (string, error) {
	t.Helper()
	root := rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config-dir", configDir, "--data-dir", dataDir}, args...))
	err := root.Execute()
	return out.String(), err
}

func tempDirs(t *testing.T) (string, string) {
	t.Helper()
	base := t.TempDir()
	return filepath.Join(base, "config"), filepath.Join(base, "data")
}

func TestSpeedCommand(t *testing.T) {
	configDir, dataDir := tempDirs(t)

	out, err := runCLI(t, configDir, dataDir, "", "speed", "100", "300")
	if err != nil {
		t.Fatalf("speed: %v", err)
	}
	if !strings.Contains(out, "100-300 ms per key") {
		t.Errorf("output = %q, want the new delay range", out)
	}

	got, ok, err := typing.NewSync(configDir).Load()
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if want := (typing.Config{MinDelay: 100, MaxDelay: 300}); got != want {
		t.Errorf("persisted = %+v, want %+v", got, want)
	}
}

func TestSpeedCommand_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"min above max", []string{"speed", "300", "100"}},
		{"above ceiling", []string{"speed", "10", "401"}},
		{"not a number", []string{"speed", "fast", "100"}},
		{"negative", []string{"speed", "-1", "100"}},
		{"missing arg", []string{"speed", "10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configDir, dataDir := tempDirs(t)
			if _, err := runCLI(t, configDir, dataDir, "", tt.args...); err == nil {
				t.Fatal("expected an error")
			}
			if _, ok, _ := typing.NewSync(configDir).Load(); ok {
				t.Error("an invalid speed must not write the config file")
			}
		})
	}
}

func TestErrRateCommand_KeepsSpeed(t *testing.T) {
	configDir, dataDir := tempDirs(t)
	if _, err := runCLI(t, configDir, dataDir, "", "speed", "10", "30"); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, configDir, dataDir, "", "err-rate", "55"); err != nil {
		t.Fatal(err)
	}

	got, _, err := typing.NewSync(configDir).Load()
	if err != nil {
		t.Fatal(err)
	}
	if want := (typing.Config{MinDelay: 370, MaxDelay: 390, ErrorRate: 55}); got != want {
		t.Errorf("persisted = %+v, want %+v", got, want)
	}

	if _, err := runCLI(t, configDir, dataDir, "", "err-rate", "101"); err == nil {
		t.Error("err-rate 101 should be rejected")
	}
}

func TestKeyCommands(t *testing.T) {
	configDir, dataDir := tempDirs(t)

	out, err := runCLI(t, configDir, dataDir, "", "key", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No API key stored") {
		t.Errorf("show before set = %q", out)
	}

	out, err = runCLI(t, configDir, dataDir, "gsk_fromstdin\n", "key", "set")
	if err != nil {
		t.Fatalf("key set: %v", err)
	}
	if strings.Contains(out, "gsk_fromstdin") {
		t.Errorf("key set echoed the key: %q", out)
	}

	key, ok, err := secret.NewStore(configDir).Load()
	if err != nil || !ok || key != "gsk_fromstdin" {
		t.Fatalf("stored key = %q, %v, %v", key, ok, err)
	}

	out, err = runCLI(t, configDir, dataDir, "", "key", "show")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != secret.Redact("gsk_fromstdin") {
		t.Errorf("show = %q, want redacted key", out)
	}

	if _, err := runCLI(t, configDir, dataDir, "\n", "key", "set"); err == nil {
		t.Error("an empty key should be rejected")
	}
}

func TestStatusCommand(t *testing.T) {
	configDir, dataDir := tempDirs(t)
	out, err := runCLI(t, configDir, dataDir, "", "status")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"20-25 ms per key", "0%", "not set", typing.FileName} {
		if !strings.Contains(out, want) {
			t.Errorf("status missing %q\ngot:\n%s", want, out)
		}
	}
}

func TestStatusCommand_TomlDefaults(t *testing.T) {
	configDir, dataDir := tempDirs(t)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatal(err)
	}
	toml := "[typing]\nmin_delay = 50\nmax_delay = 80\nerror_rate = 3\n"
	if err := os.WriteFile(filepath.Join(configDir, config.FileName), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, configDir, dataDir, "", "status")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "50-80 ms per key") || !strings.Contains(out, "3%") {
		t.Errorf("status should use [typing] defaults\ngot:\n%s", out)
	}
}

func TestInvalidSettingsFile(t *testing.T) {
	configDir, dataDir := tempDirs(t)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, config.FileName), []byte("[typing]\nmin_dleay = 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := runCLI(t, configDir, dataDir, "", "status")
	if err == nil || !strings.Contains(err.Error(), "min_dleay") {
		t.Errorf("err = %v, want the unknown key named", err)
	}
}

func TestInitCommand(t *testing.T) {
	configDir, dataDir := tempDirs(t)
	out, err := runCLI(t, configDir, dataDir, "", "init")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(configDir, config.FileName)
	if !strings.Contains(out, want) {
		t.Errorf("output = %q, want %s", out, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("settings file not created: %v", err)
	}
	if _, err := runCLI(t, configDir, dataDir, "", "init"); err == nil {
		t.Error("second init should refuse to overwrite")
	}
}

func TestOpenURLCommand_RejectsScheme(t *testing.T) {
	configDir, dataDir := tempDirs(t)
	_, err := runCLI(t, configDir, dataDir, "", "open-url", "file:///etc/passwd")
	if !errors.Is(err, app.ErrInvalidURL) {
		t.Errorf("err = %v, want ErrInvalidURL", err)
	}
}

func TestHistoryCommand(t *testing.T) {
	configDir, dataDir := tempDirs(t)

	out, err := runCLI(t, configDir, dataDir, "", "history")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No runs recorded") {
		t.Errorf("empty history = %q", out)
	}

	ctx := t.Context()
	h, err := store.OpenHistory(ctx, filepath.Join(dataDir, store.HistoryFile))
	if err != nil {
		t.Fatal(err)
	}
	start := time.Now().Add(-time.Minute)
	info := supervisor.RunInfo{ID: "0123456789abcdef", Path: "node", StartedAt: start}
	if err := h.Started(ctx, info); err != nil {
		t.Fatal(err)
	}
	if err := h.Finished(ctx, supervisor.Exit{RunID: info.ID, Code: -1, Killed: true, StartedAt: start, EndedAt: start.Add(42 * time.Second)}); err != nil {
		t.Fatal(err)
	}
	h.Close()

	out, err = runCLI(t, configDir, dataDir, "", "history")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"01234567", "closed after 42s", "ago"} {
		if !strings.Contains(out, want) {
			t.Errorf("history missing %q\ngot:\n%s", want, out)
		}
	}
}

func TestLogsCommand(t *testing.T) {
	configDir, dataDir := tempDirs(t)

	out, err := runCLI(t, configDir, dataDir, "", "logs")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No output logs") {
		t.Errorf("empty logs = %q", out)
	}

	j, err := store.NewJSONL(filepath.Join(dataDir, "logs"), nil)
	if err != nil {
		t.Fatal(err)
	}
	j.Line("run-a", supervisor.Stdout, "typing started")
	j.Line("run-b", supervisor.Stderr, "vision call failed")
	if err := j.Close(); err != nil {
		t.Fatal(err)
	}

	out, err = runCLI(t, configDir, dataDir, "", "logs")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, filepath.Base(j.Path())) {
		t.Errorf("listing missing %s\ngot:\n%s", filepath.Base(j.Path()), out)
	}

	out, err = runCLI(t, configDir, dataDir, "", "logs", "latest", "--run", "run-b")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "vision call failed") || strings.Contains(out, "typing started") {
		t.Errorf("filtered log = %q", out)
	}
}

func TestResolveSession(t *testing.T) {
	dir := filepath.Join("data", "logs")
	files := []string{filepath.Join(dir, "1-1.jsonl"), filepath.Join(dir, "2-1.jsonl")}

	tests := []struct {
		name string
		want string
	}{
		{"latest", files[1]},
		{"1-1", files[0]},
		{"1-1.jsonl", files[0]},
		{filepath.Join("elsewhere", "x.jsonl"), filepath.Join("elsewhere", "x.jsonl")},
	}
	for _, tt := range tests {
		got, err := resolveSession(dir, files, tt.name)
		if err != nil {
			t.Fatalf("resolveSession(%q): %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("resolveSession(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}

	if _, err := resolveSession(dir, nil, "latest"); err == nil {
		t.Error("latest with no sessions should fail")
	}
}

func TestFormatEvent(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.Local)
	tests := []struct {
		name  string
		event notify.Event
		want  string
	}{
		{
			name:  "opening with run",
			event: notify.Event{Kind: notify.Opening, RunID: "abcdef0123", Timestamp: at},
			want:  "09:30:00  browser-opening  run abcdef01",
		},
		{
			name:  "chrome error payload",
			event: notify.Event{Kind: notify.ChromeMissing, Payload: app.ChromeMissingMessage, Timestamp: at},
			want:  "09:30:00  chrome-error  " + app.ChromeMissingMessage,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatEvent(tt.event); got != tt.want {
				t.Errorf("formatEvent = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatDoctor(t *testing.T) {
	checks := []app.Check{
		{Name: app.ComponentTarget, Path: "/usr/bin/google-chrome", OK: true},
		{Name: app.ComponentScript, Checked: []string{"/a/puppeteer-node.cjs", "/b/puppeteer-node.cjs"}, Err: errors.New("not found")},
		{Name: "api key", Path: "/cfg/grokKey", Err: os.ErrNotExist},
	}
	got := formatDoctor(checks)
	for _, want := range []string{"✓", "/usr/bin/google-chrome", "✗", "/a/puppeteer-node.cjs", "/b/puppeteer-node.cjs", "not set (/cfg/grokKey)"} {
		if !strings.Contains(got, want) {
			t.Errorf("doctor output missing %q\ngot:\n%s", want, got)
		}
	}
	if n := requiredFailures(checks); n != 1 {
		t.Errorf("requiredFailures = %d, want 1 (the api key is optional)", n)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{1500 * time.Millisecond, "2s"},
		{75 * time.Second, "1m15s"},
		{2*time.Hour + 5*time.Minute, "2h5m"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestRunOutcome(t *testing.T) {
	start := time.Now()
	tests := []struct {
		name string
		run  store.Run
		want string
	}{
		{"unfinished", store.Run{StartedAt: start}, "running or interrupted"},
		{"failed", store.Run{StartedAt: start, EndedAt: start.Add(time.Second), Err: "boom"}, "failed: boom"},
		{"exit code", store.Run{StartedAt: start, EndedAt: start.Add(3 * time.Second), Code: 2}, "exited 2 after 3s"},
		{"clean", store.Run{StartedAt: start, EndedAt: start.Add(time.Minute)}, "finished after 1m0s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runOutcome(tt.run); got != tt.want {
				t.Errorf("runOutcome = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatRunSummary(t *testing.T) {
	const id = "abcdef0123456789"
	tests := []struct {
		name string
		span store.RunSpan
		ok   bool
		want string
	}{
		{"no output", store.RunSpan{}, false, "run abcdef01: no output"},
		{"one line", store.RunSpan{Lines: 1}, true, "run abcdef01: 1 line of output (0 on stderr)"},
		{"many", store.RunSpan{Lines: 1200, Stderr: 3}, true, "run abcdef01: 1,200 lines of output (3 on stderr)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatRunSummary(id, tt.span, tt.ok); got != tt.want {
				t.Errorf("formatRunSummary = %q, want %q", got, tt.want)
			}
		})
	}
}
