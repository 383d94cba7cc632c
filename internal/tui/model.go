package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/notify"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/typing"
)

const (
	// speedStep is how far one key press moves a speed bound.
	speedStep = 5
	// speedGap is the minimum distance between min and max speed.
	speedGap = 5
	// maxErrorRate is the top of the error rate scale, in percent.
	maxErrorRate = 100
	// consoleURL is where users get an API key.
	consoleURL = "https://console.groq.com/"
)

// Options configures a Model.
type Options struct {
	Controller  Controller
	Events      <-chan notify.Event
	Output      <-chan OutputLine
	AccentColor string
}

// Model is the root bubbletea model.
type Model struct {
	ctrl   Controller
	events <-chan notify.Event
	output <-chan OutputLine

	// Typing parameters as shown; speeds are derived from cfg.
	cfg      typing.Config
	minSpeed uint32
	maxSpeed uint32

	hasKey     bool
	editingKey bool
	keyInput   textinput.Model

	state     BrowserState
	runID     string
	runSince  time.Time
	lastError string

	focus  FocusTarget
	log    eventLog
	keys   KeyMap
	help   help.Model
	layout Layout
	theme  Theme
	width  int
	height int
	now    time.Time
}

// New creates the TUI model.
func New(opts Options) Model {
	in := textinput.New()
	in.Placeholder = "paste API key"
	in.EchoMode = textinput.EchoPassword
	in.EchoCharacter = '•'
	in.CharLimit = 256

	layout := Calculate(80, 24)
	logW, logH := innerDims(layout.Log)

	m := Model{
		ctrl:     opts.Controller,
		events:   opts.Events,
		output:   opts.Output,
		keyInput: in,
		state:    StateIdle,
		focus:    FocusControls,
		log:      newEventLog(logW, logH),
		keys:     DefaultKeyMap(),
		help:     help.New(),
		layout:   layout,
		theme:    NewTheme(opts.AccentColor),
		width:    80,
		height:   24,
		now:      time.Now(),
	}
	m = m.setConfig(opts.Controller.TypingConfig())
	if _, running := opts.Controller.Running(); running {
		m.state = StateRunning
	}
	return m
}

// Init starts the event listeners, the clock and the API key check.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForEvent(m.events),
		waitForOutput(m.output),
		tickCmd(),
		m.checkKey(),
	)
}

// State returns the browser state as the TUI sees it.
func (m Model) State() BrowserState { return m.state }

func (m Model) setConfig(cfg typing.Config) Model {
	m.cfg = cfg
	m.minSpeed, m.maxSpeed = cfg.Speeds()
	return m
}

// tickMsg is sent every second for the clock.
type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForEvent blocks on the event channel. A nil channel never fires.
func waitForEvent(ch <-chan notify.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg(e)
	}
}

func waitForOutput(ch <-chan OutputLine) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		l, ok := <-ch
		if !ok {
			return nil
		}
		return outputMsg(l)
	}
}

func (m Model) checkKey() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		_, ok, err := ctrl.GetAPIKey()
		return keyStatusMsg{ok: ok, err: err}
	}
}

func (m Model) openBrowser() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return openResultMsg{err: ctrl.OpenBrowser(context.Background())}
	}
}

func (m Model) updateSpeed(minSpeed, maxSpeed uint32) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		cfg, err := ctrl.UpdateTypeSpeed(minSpeed, maxSpeed)
		return configResultMsg{cfg: cfg, err: err}
	}
}

func (m Model) updateErrRate(rate uint32) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		cfg, err := ctrl.UpdateErrRate(rate)
		return configResultMsg{cfg: cfg, err: err}
	}
}

func (m Model) saveKey(key string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return keySavedMsg{err: ctrl.SaveAPIKey(key)}
	}
}

func (m Model) openExternal(url string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return externalOpenedMsg{url: url, err: ctrl.OpenExternal(context.Background(), url)}
	}
}
