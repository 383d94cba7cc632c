package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/typing"
)

// View renders the TUI.
func (m Model) View() string {
	if m.layout.TooSmall {
		msg := fmt.Sprintf("Terminal too small (%dx%d).\nPlease resize to at least %dx%d.", m.width, m.height, MinWidth, MinHeight)
		return lipgloss.NewStyle().
			Width(m.width).
			Align(lipgloss.Center).
			Render(msg)
	}

	ctrlW, ctrlH := innerDims(m.layout.Controls)
	logW, logH := innerDims(m.layout.Log)

	controls := m.theme.PanelBorderStyle(m.focus == FocusControls).
		Width(ctrlW).Height(ctrlH).
		Render(m.renderControls(ctrlW))
	logPanel := m.theme.PanelBorderStyle(m.focus == FocusLog).
		Width(logW).Height(logH).
		Render(m.log.view())

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		controls,
		logPanel,
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	left := fmt.Sprintf(" TypeWinner  %s %s", m.state.Symbol(), m.state.Label())
	if m.state == StateRunning || m.state == StateOpening {
		if m.runID != "" {
			left += "  run " + shortID(m.runID)
		}
		if !m.runSince.IsZero() {
			left += "  since " + humanize.RelTime(m.runSince, m.now, "ago", "from now")
		}
	}
	right := m.now.Format("15:04:05") + " "
	gap := m.layout.Header.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return m.theme.accentStyle.Width(m.layout.Header.Width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderControls(width int) string {
	barW := width - 12 - 8
	if barW < 10 {
		barW = 10
	}

	rows := []string{
		labelStyle.Render("Min speed") + m.theme.slider(m.minSpeed, typing.DelayCeiling, barW) + valueStyle.Render(fmt.Sprintf(" %4d", m.minSpeed)),
		labelStyle.Render("Max speed") + m.theme.slider(m.maxSpeed, typing.DelayCeiling, barW) + valueStyle.Render(fmt.Sprintf(" %4d", m.maxSpeed)),
		labelStyle.Render("Error rate") + m.theme.slider(m.cfg.ErrorRate, maxErrorRate, barW) + valueStyle.Render(fmt.Sprintf(" %3d%%", m.cfg.ErrorRate)),
		labelStyle.Render("Delay") + infoStyle.Render(fmt.Sprintf("%d-%d ms per key", m.cfg.MinDelay, m.cfg.MaxDelay)),
	}

	switch {
	case m.editingKey:
		rows = append(rows, labelStyle.Render("API key")+m.keyInput.View())
	case m.hasKey:
		rows = append(rows, labelStyle.Render("API key")+okStyle.Render("set")+footerStyle.Render("  (a to replace)"))
	default:
		rows = append(rows, labelStyle.Render("API key")+errorStyle.Render("not set")+footerStyle.Render("  (a to enter, g to get one)"))
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderFooter() string {
	hints := m.help.View(m.keys)
	if m.editingKey {
		hints = "enter:save  esc:cancel"
	}
	if m.lastError == "" {
		return footerStyle.Width(m.layout.Footer.Width).Render(hints)
	}
	left := errorStyle.Render(truncate(m.lastError, m.layout.Footer.Width/2))
	gap := m.layout.Footer.Width - lipgloss.Width(left) - lipgloss.Width(hints)
	if gap < 2 {
		gap = 2
	}
	return footerStyle.Width(m.layout.Footer.Width).Render(left + strings.Repeat(" ", gap) + hints)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n < 2 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
