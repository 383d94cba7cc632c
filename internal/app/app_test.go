package app

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/locate"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/notify"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/secret"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/store"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/typing"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeScript stands in for the automation script. It records its argv and
// the config file as it was at spawn time, then exits unless a "hold" file
// exists in the data dir.
const fakeScript = `#!/bin/sh
printf '%s\n' "$1" "$2" "$3" "$4" > "$2/argv"
cat "$3" > "$2/config-at-spawn"
if [ -f "$2/hold" ]; then exec sleep 30; fi
`

type fakeProbe struct {
	chrome, script, runtime string
	chromeErr, scriptErr    error
	runtimeErr              error
	runtimeDelay            time.Duration
}

func (f *fakeProbe) Chrome(string) (string, error) { return f.chrome, f.chromeErr }
func (f *fakeProbe) Script(string) (string, error) { return f.script, f.scriptErr }

func (f *fakeProbe) Runtime(string) (string, error) {
	time.Sleep(f.runtimeDelay)
	return f.runtime, f.runtimeErr
}

type recorder struct {
	mu      sync.Mutex
	events  []notify.Event
	enabled chan notify.Event
}

func newRecorder() *recorder { return &recorder{enabled: make(chan notify.Event, 16)} }

func (r *recorder) Emit(e notify.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	if e.Kind == notify.Enabled {
		select {
		case r.enabled <- e:
		default:
		}
	}
}

func (r *recorder) kinds() []notify.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Kind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

func (r *recorder) count(k notify.Kind) int {
	n := 0
	for _, got := range r.kinds() {
		if got == k {
			n++
		}
	}
	return n
}

func (r *recorder) waitEnabled(t *testing.T) notify.Event {
	t.Helper()
	select {
	case e := <-r.enabled:
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("no Enabled event")
		return notify.Event{}
	}
}

type fixture struct {
	app     *App
	events  *recorder
	probe   *fakeProbe
	dataDir string
	cfgDir  string
	history *store.History
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	sh, err := exec.LookPath("sh")
	require.NoError(t, err)

	root := t.TempDir()
	cfgDir := filepath.Join(root, "config")
	dataDir := filepath.Join(root, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))

	script := filepath.Join(root, locate.ScriptName)
	require.NoError(t, os.WriteFile(script, []byte(fakeScript), 0o755))

	hist, err := store.OpenHistory(context.Background(), filepath.Join(dataDir, store.HistoryFile))
	require.NoError(t, err)

	f := &fixture{
		events:  newRecorder(),
		probe:   &fakeProbe{chrome: "/fake/chrome", script: script, runtime: sh},
		dataDir: dataDir,
		cfgDir:  cfgDir,
		history: hist,
	}
	f.app, err = New(Deps{
		Store:    typing.NewStore(typing.Defaults()),
		Sync:     typing.NewSync(cfgDir),
		Probe:    f.probe,
		Secret:   secret.NewStore(cfgDir),
		DataDir:  dataDir,
		Notifier: f.events,
		History:  hist,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = f.app.Shutdown(ctx)
		_ = hist.Close()
	})
	return f
}

func (f *fixture) hold(t *testing.T) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.dataDir, "hold"), nil, 0o644))
}

func readConfigFile(t *testing.T, path string) typing.Config {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var cfg typing.Config
	require.NoError(t, json.Unmarshal(data, &cfg))
	return cfg
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Deps{})
	require.Error(t, err)
}

func TestOpenBrowser_Success(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.app.SaveAPIKey("gsk_test"))
	_, err := f.app.UpdateTypeSpeed(100, 300)
	require.NoError(t, err)

	require.NoError(t, f.app.OpenBrowser(context.Background()))
	require.Equal(t, 1, f.events.count(notify.Opening), "Opening must be emitted before OpenBrowser returns")

	enabled := f.events.waitEnabled(t)
	require.Equal(t, 1, f.events.count(notify.Enabled))
	require.Equal(t, []notify.Kind{notify.Opening, notify.Enabled}, f.events.kinds())

	_, running := f.app.Running()
	require.False(t, running)

	argv, err := os.ReadFile(filepath.Join(f.dataDir, "argv"))
	require.NoError(t, err)
	want := strings.Join([]string{"/fake/chrome", f.dataDir, f.app.ConfigPath(), "gsk_test"}, "\n") + "\n"
	require.Equal(t, want, string(argv))

	atSpawn := readConfigFile(t, filepath.Join(f.dataDir, "config-at-spawn"))
	require.Equal(t, typing.Config{MinDelay: 100, MaxDelay: 300, ErrorRate: 0}, atSpawn)

	runs, err := f.history.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, enabled.RunID, runs[0].ID)
	require.True(t, runs[0].Finished())
	require.NotContains(t, runs[0].Args, "gsk_test", "history must not store the API key")
	require.True(t, strings.HasSuffix(runs[0].Args, "****test"), "args = %q", runs[0].Args)
}

func TestOpenBrowser_NoKeyPassesEmptyArg(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.app.OpenBrowser(context.Background()))
	f.events.waitEnabled(t)

	argv, err := os.ReadFile(filepath.Join(f.dataDir, "argv"))
	require.NoError(t, err)
	lines := strings.Split(string(argv), "\n")
	require.Len(t, lines, 5)
	require.Equal(t, "", lines[3])
}

func TestOpenBrowser_MissingScript(t *testing.T) {
	f := newFixture(t)
	checked := []string{"/opt/tw/puppeteer-node.cjs", "/opt/tw/resources/puppeteer-node.cjs"}
	f.probe.scriptErr = &locate.NotFoundError{What: "automation script", Checked: checked}

	err := f.app.OpenBrowser(context.Background())
	var em *EnvironmentMissingError
	require.True(t, errors.As(err, &em), "err = %v", err)
	require.Equal(t, ComponentScript, em.Component)
	require.Equal(t, checked, em.Checked)
	for _, c := range checked {
		require.Contains(t, err.Error(), c)
	}

	require.Empty(t, f.events.kinds(), "no Opening on pre-spawn failure")
	_, running := f.app.Running()
	require.False(t, running)
}

func TestOpenBrowser_MissingChrome(t *testing.T) {
	f := newFixture(t)
	f.probe.chromeErr = &locate.NotFoundError{What: "Google Chrome"}

	err := f.app.OpenBrowser(context.Background())
	var em *EnvironmentMissingError
	require.True(t, errors.As(err, &em))
	require.Equal(t, ComponentTarget, em.Component)
	_, statErr := os.Stat(f.app.ConfigPath())
	require.True(t, os.IsNotExist(statErr), "config must not be written when chrome is missing")
}

func TestOpenBrowser_MissingRuntime(t *testing.T) {
	f := newFixture(t)
	f.probe.runtimeErr = &locate.NotFoundError{What: "Node.js"}

	err := f.app.OpenBrowser(context.Background())
	var em *EnvironmentMissingError
	require.True(t, errors.As(err, &em))
	require.Equal(t, ComponentRuntime, em.Component)

	_, running := f.app.Running()
	require.False(t, running)
	require.Equal(t, 0, f.events.count(notify.Enabled))
}

func TestOpenBrowser_AlreadyRunning(t *testing.T) {
	f := newFixture(t)
	f.hold(t)

	require.NoError(t, f.app.OpenBrowser(context.Background()))
	first, running := f.app.Running()
	require.True(t, running)

	err := f.app.OpenBrowser(context.Background())
	require.ErrorIs(t, err, ErrAlreadyRunning)
	require.Equal(t, 1, f.events.count(notify.Opening), "rejected open has no side effects")

	again, running := f.app.Running()
	require.True(t, running)
	require.Equal(t, first.ID, again.ID)

	require.True(t, f.app.KillBrowser())
	f.events.waitEnabled(t)
}

func TestOpenBrowser_ConcurrentOpensStartOne(t *testing.T) {
	f := newFixture(t)
	f.hold(t)
	f.probe.runtimeDelay = 50 * time.Millisecond

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = f.app.OpenBrowser(context.Background())
		}()
	}
	wg.Wait()

	var started, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			started++
		case errors.Is(err, ErrAlreadyRunning):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, started)
	require.Equal(t, 1, rejected)
	require.Equal(t, 1, f.events.count(notify.Opening), "the rejected open must not announce a run")

	require.True(t, f.app.KillBrowser())
	f.events.waitEnabled(t)
	require.Equal(t, 1, f.events.count(notify.Enabled))
}

func TestShutdown_KillsAndRecords(t *testing.T) {
	f := newFixture(t)
	f.hold(t)

	require.NoError(t, f.app.OpenBrowser(context.Background()))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.app.Shutdown(ctx))

	_, running := f.app.Running()
	require.False(t, running)
	require.Equal(t, 1, f.events.count(notify.Enabled))
	runs, err := f.history.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.True(t, runs[0].Killed)
	require.True(t, runs[0].Finished())
}

func TestKillBrowser_SingleEnabled(t *testing.T) {
	f := newFixture(t)
	f.hold(t)

	require.NoError(t, f.app.OpenBrowser(context.Background()))
	require.True(t, f.app.KillBrowser())
	f.events.waitEnabled(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.app.Shutdown(ctx))
	require.Equal(t, 1, f.events.count(notify.Enabled))

	runs, err := f.history.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.True(t, runs[0].Killed)
}

func TestQuit_KillsBrowser(t *testing.T) {
	f := newFixture(t)
	f.hold(t)

	require.NoError(t, f.app.OpenBrowser(context.Background()))
	select {
	case <-f.app.Quit():
	case <-time.After(5 * time.Second):
		t.Fatal("Quit did not send the kill")
	}
	f.events.waitEnabled(t)
	_, running := f.app.Running()
	require.False(t, running)
}

func TestStart_ProcessDoneAfterEnabled(t *testing.T) {
	f := newFixture(t)

	p, err := f.app.Start(context.Background())
	require.NoError(t, err)
	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process not reaped")
	}

	exit := p.Exit()
	require.Equal(t, p.Info().ID, exit.RunID)
	require.Equal(t, 0, exit.Code)
	require.False(t, exit.Killed)
	require.Equal(t, 1, f.events.count(notify.Enabled), "Enabled must be emitted before Done closes")
}

func TestUpdateTypeSpeed_Persists(t *testing.T) {
	f := newFixture(t)

	cfg, err := f.app.UpdateTypeSpeed(100, 300)
	require.NoError(t, err)
	require.Equal(t, typing.Config{MinDelay: 100, MaxDelay: 300, ErrorRate: 0}, cfg)
	require.Equal(t, cfg, readConfigFile(t, f.app.ConfigPath()))
}

func TestUpdateTypeSpeed_Invalid(t *testing.T) {
	f := newFixture(t)
	_, err := f.app.UpdateTypeSpeed(100, 300)
	require.NoError(t, err)

	_, err = f.app.UpdateTypeSpeed(300, 100)
	require.ErrorIs(t, err, typing.ErrInvalidSpeed)
	_, err = f.app.UpdateTypeSpeed(0, 401)
	require.ErrorIs(t, err, typing.ErrInvalidSpeed)

	want := typing.Config{MinDelay: 100, MaxDelay: 300}
	require.Equal(t, want, f.app.TypingConfig())
	require.Equal(t, want, readConfigFile(t, f.app.ConfigPath()))
}

func TestErrRateSurvivesSpeedChange(t *testing.T) {
	f := newFixture(t)

	_, err := f.app.UpdateErrRate(55)
	require.NoError(t, err)
	_, err = f.app.UpdateTypeSpeed(10, 30)
	require.NoError(t, err)

	want := typing.Config{MinDelay: 370, MaxDelay: 390, ErrorRate: 55}
	require.Equal(t, want, f.app.TypingConfig())
	require.Equal(t, want, readConfigFile(t, f.app.ConfigPath()))
}

func TestConcurrentUpdates_FileMatchesMemory(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	for i := uint32(0); i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = f.app.UpdateTypeSpeed(i, 200+i)
		}()
		go func() {
			defer wg.Done()
			_, _ = f.app.UpdateErrRate(i)
		}()
	}
	wg.Wait()

	require.Equal(t, f.app.TypingConfig(), readConfigFile(t, f.app.ConfigPath()))
}

func TestApplyExternal(t *testing.T) {
	f := newFixture(t)

	require.False(t, f.app.ApplyExternal(typing.Defaults()), "same config is a no-op")
	require.True(t, f.app.ApplyExternal(typing.Config{MinDelay: 5, MaxDelay: 10, ErrorRate: 3}))
	require.Equal(t, typing.Config{MinDelay: 5, MaxDelay: 10, ErrorRate: 3}, f.app.TypingConfig())
	require.False(t, f.app.ApplyExternal(typing.Config{MinDelay: 50, MaxDelay: 10}), "invalid config ignored")
	require.Equal(t, uint32(5), f.app.TypingConfig().MinDelay)
}

func TestAPIKey(t *testing.T) {
	f := newFixture(t)

	_, ok, err := f.app.GetAPIKey()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, f.app.SaveAPIKey("gsk_abc"))
	key, ok, err := f.app.GetAPIKey()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "gsk_abc", key)
}

func TestOpenExternal(t *testing.T) {
	var opened []string
	f := newFixture(t)
	f.app.opener = func(_ context.Context, u string) error {
		opened = append(opened, u)
		return nil
	}

	require.NoError(t, f.app.OpenExternal(context.Background(), "https://console.groq.com/"))
	for _, bad := range []string{"file:///etc/passwd", "javascript:alert(1)", "console.groq.com", "https://"} {
		require.ErrorIs(t, f.app.OpenExternal(context.Background(), bad), ErrInvalidURL, bad)
	}
	require.Equal(t, []string{"https://console.groq.com/"}, opened)
}

func TestOpenCommand(t *testing.T) {
	const u = "https://x.test/?a=1&b=2|calc^"
	tests := []struct {
		goos string
		name string
		args []string
	}{
		{"linux", "xdg-open", []string{u}},
		{"darwin", "open", []string{u}},
		{"windows", "rundll32", []string{"url.dll,FileProtocolHandler", u}},
	}
	for _, tt := range tests {
		name, args := openCommand(tt.goos, u)
		require.Equal(t, tt.name, name, tt.goos)
		require.Equal(t, tt.args, args, tt.goos)
		require.NotEqual(t, "cmd", name, "%s: the URL must not pass through a shell", tt.goos)
	}
}

func TestCheckEnvironment(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.app.CheckEnvironment())
	require.Empty(t, f.events.kinds())

	f.probe.chromeErr = &locate.NotFoundError{What: "Google Chrome"}
	require.Error(t, f.app.CheckEnvironment())

	f.events.mu.Lock()
	defer f.events.mu.Unlock()
	require.Len(t, f.events.events, 1)
	require.Equal(t, notify.ChromeMissing, f.events.events[0].Kind)
	require.Equal(t, ChromeMissingMessage, f.events.events[0].Payload)
}

func TestDoctor(t *testing.T) {
	f := newFixture(t)
	f.probe.runtimeErr = &locate.NotFoundError{What: "Node.js", Checked: []string{"$PATH: node"}}

	checks := f.app.Doctor()
	byName := map[string]Check{}
	for _, c := range checks {
		byName[c.Name] = c
	}
	require.True(t, byName[ComponentTarget].OK)
	require.True(t, byName[ComponentScript].OK)
	require.False(t, byName[ComponentRuntime].OK)
	require.Equal(t, []string{"$PATH: node"}, byName[ComponentRuntime].Checked)
	require.False(t, byName["config file"].OK)
	require.False(t, byName["api key"].OK)
}
