package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/notify"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/supervisor"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/typing"
)

// Update handles all incoming bubbletea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)
	case tea.KeyMsg:
		if m.editingKey {
			return m.handleKeyInput(msg)
		}
		return m.handleKey(msg)
	case tickMsg:
		m.now = time.Time(msg)
		return m, tickCmd()
	case eventMsg:
		m = m.handleEvent(notify.Event(msg))
		return m, waitForEvent(m.events)
	case outputMsg:
		kind := lineStdout
		if msg.Stream == supervisor.Stderr {
			kind = lineStderr
		}
		m = m.appendLine(msg.At, kind, msg.Text)
		return m, waitForOutput(m.output)
	case openResultMsg:
		return m.handleOpenResult(msg), nil
	case configResultMsg:
		if msg.err != nil {
			return m.setConfig(m.ctrl.TypingConfig()).fail(msg.err), nil
		}
		return m.setConfig(msg.cfg), nil
	case ConfigChangedMsg:
		m = m.setConfig(typing.Config(msg))
		m = m.appendLine(time.Now(), lineInfo, fmt.Sprintf("config reloaded from disk: delay %d-%dms, error rate %d%%",
			msg.MinDelay, msg.MaxDelay, msg.ErrorRate))
		return m, nil
	case keyStatusMsg:
		if msg.err != nil {
			return m.fail(msg.err), nil
		}
		m.hasKey = msg.ok
		return m, nil
	case keySavedMsg:
		if msg.err != nil {
			return m.fail(msg.err), nil
		}
		m.hasKey = true
		return m.appendLine(time.Now(), lineOK, "API key saved"), nil
	case externalOpenedMsg:
		if msg.err != nil {
			return m.fail(msg.err), nil
		}
		return m.appendLine(time.Now(), lineInfo, "opened "+msg.url), nil
	}
	return m, nil
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.layout = Calculate(msg.Width, msg.Height)
	m.help.Width = msg.Width
	if !m.layout.TooSmall {
		w, h := innerDims(m.layout.Log)
		m.log = m.log.setSize(w, h)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.ctrl.Quit()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Focus):
		m.focus = m.focus.Next()
		return m, nil
	case key.Matches(msg, m.keys.Open):
		if !m.state.CanOpen() {
			return m.appendLine(time.Now(), lineInfo, "browser is already open"), nil
		}
		m.state = StateOpening
		m.lastError = ""
		return m, m.openBrowser()
	case key.Matches(msg, m.keys.Kill):
		if !m.ctrl.KillBrowser() {
			return m.appendLine(time.Now(), lineInfo, "no browser to close"), nil
		}
		return m, nil
	case key.Matches(msg, m.keys.ErrDown):
		if m.cfg.ErrorRate == 0 {
			return m, nil
		}
		return m, m.updateErrRate(m.cfg.ErrorRate - 1)
	case key.Matches(msg, m.keys.ErrUp):
		if m.cfg.ErrorRate >= maxErrorRate {
			return m, nil
		}
		return m, m.updateErrRate(m.cfg.ErrorRate + 1)
	case key.Matches(msg, m.keys.APIKey):
		m.editingKey = true
		m.keyInput.SetValue("")
		return m, m.keyInput.Focus()
	case key.Matches(msg, m.keys.Console):
		return m, m.openExternal(consoleURL)
	}

	if m.focus == FocusLog {
		if key.Matches(msg, m.keys.Follow) {
			m.log = m.log.toggleFollow()
			return m, nil
		}
		var cmd tea.Cmd
		m.log, cmd = m.log.update(msg)
		return m, cmd
	}

	minSpeed, maxSpeed, ok := adjustSpeed(m.minSpeed, m.maxSpeed, m.keys, msg)
	if !ok {
		return m, nil
	}
	m.minSpeed, m.maxSpeed = minSpeed, maxSpeed
	return m, m.updateSpeed(minSpeed, maxSpeed)
}

// adjustSpeed applies a speed key to the current bounds, keeping both in
// 0..DelayCeiling and at least speedGap apart. ok is false when the key is
// not a speed key or the bounds did not move.
func adjustSpeed(minSpeed, maxSpeed uint32, keys KeyMap, msg tea.KeyMsg) (uint32, uint32, bool) {
	newMin, newMax := minSpeed, maxSpeed
	switch {
	case key.Matches(msg, keys.MinDown):
		newMin = subClamp(minSpeed, speedStep, 0)
	case key.Matches(msg, keys.MinUp):
		if maxSpeed >= speedGap {
			newMin = min(minSpeed+speedStep, maxSpeed-speedGap)
		}
	case key.Matches(msg, keys.MaxUp):
		newMax = min(maxSpeed+speedStep, typing.DelayCeiling)
	case key.Matches(msg, keys.MaxDown):
		newMax = subClamp(maxSpeed, speedStep, minSpeed+speedGap)
	default:
		return minSpeed, maxSpeed, false
	}
	if newMin == minSpeed && newMax == maxSpeed {
		return minSpeed, maxSpeed, false
	}
	return newMin, newMax, true
}

// subClamp returns v-step, but never less than floor (or v, if v is
// already below floor).
func subClamp(v, step, floor uint32) uint32 {
	if v <= floor {
		return v
	}
	if v-floor < step {
		return floor
	}
	return v - step
}

func (m Model) handleKeyInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.editingKey = false
		m.keyInput.Blur()
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.keyInput.Value())
		m.editingKey = false
		m.keyInput.Blur()
		m.keyInput.SetValue("")
		if value == "" {
			return m, nil
		}
		return m, m.saveKey(value)
	}
	var cmd tea.Cmd
	m.keyInput, cmd = m.keyInput.Update(msg)
	return m, cmd
}

func (m Model) handleEvent(e notify.Event) Model {
	at := e.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	switch e.Kind {
	case notify.Opening:
		if m.state.CanTransitionTo(StateOpening) {
			m.state = StateOpening
		}
		m.runID = e.RunID
		m.runSince = at
		return m.appendLine(at, lineOpening, "opening browser")
	case notify.Enabled:
		if e.RunID != "" && m.runID != "" && e.RunID != m.runID {
			return m.appendLine(at, lineInfo, "earlier browser run "+shortID(e.RunID)+" closed")
		}
		if m.state.CanTransitionTo(StateIdle) {
			m.state = StateIdle
		}
		return m.appendLine(at, lineOK, "browser closed, ready")
	case notify.ChromeMissing:
		if m.state.CanTransitionTo(StateUnavailable) {
			m.state = StateUnavailable
		}
		msg := e.Payload
		if msg == "" {
			msg = "Google Chrome not found"
		}
		m.lastError = msg
		return m.appendLine(at, lineError, msg)
	}
	return m
}

func (m Model) handleOpenResult(msg openResultMsg) Model {
	switch {
	case msg.err == nil:
		if m.state == StateOpening {
			m.state = StateRunning
		}
		return m
	case errors.Is(msg.err, supervisor.ErrAlreadyRunning):
		if m.state.CanTransitionTo(StateRunning) {
			m.state = StateRunning
		}
		return m.appendLine(time.Now(), lineInfo, "browser is already open")
	default:
		if m.state == StateOpening {
			m.state = StateIdle
		}
		return m.fail(msg.err)
	}
}

// fail records err in the footer and the log. Multi-line errors, such as
// the list of checked paths, get one log line each.
func (m Model) fail(err error) Model {
	lines := strings.Split(err.Error(), "\n")
	m.lastError = lines[0]
	now := time.Now()
	m = m.appendLine(now, lineError, lines[0])
	for _, l := range lines[1:] {
		m = m.appendLine(now, lineInfo, "  "+strings.TrimSpace(l))
	}
	return m
}

func (m Model) appendLine(at time.Time, kind lineKind, text string) Model {
	m.log = m.log.append(renderLine(at, kind, text, m.layout.Log.Width))
	return m
}
