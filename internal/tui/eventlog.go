package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// maxLogLines caps the event log; the oldest lines are dropped first.
const maxLogLines = 2000

// eventLog is a scrollable, bounded log panel over bubbles/viewport. In
// follow mode new lines keep the view pinned to the bottom.
type eventLog struct {
	vp     viewport.Model
	lines  []string
	follow bool
}

func newEventLog(w, h int) eventLog {
	return eventLog{vp: viewport.New(w, h), follow: true}
}

func (l eventLog) append(rendered string) eventLog {
	l.lines = append(l.lines, rendered)
	if over := len(l.lines) - maxLogLines; over > 0 {
		l.lines = append([]string(nil), l.lines[over:]...)
	}
	l.vp.SetContent(strings.Join(l.lines, "\n"))
	if l.follow {
		l.vp.GotoBottom()
	}
	return l
}

func (l eventLog) toggleFollow() eventLog {
	l.follow = !l.follow
	if l.follow {
		l.vp.GotoBottom()
	}
	return l
}

func (l eventLog) setSize(w, h int) eventLog {
	l.vp.Width = w
	l.vp.Height = h
	if l.follow {
		l.vp.GotoBottom()
	}
	return l
}

// update forwards scroll keys and mouse events. Scrolling away from the
// bottom leaves follow mode.
func (l eventLog) update(msg tea.Msg) (eventLog, tea.Cmd) {
	var cmd tea.Cmd
	l.vp, cmd = l.vp.Update(msg)
	if l.follow && !l.vp.AtBottom() {
		switch msg.(type) {
		case tea.KeyMsg, tea.MouseMsg:
			l.follow = false
		}
	}
	return l, cmd
}

func (l eventLog) view() string { return l.vp.View() }
