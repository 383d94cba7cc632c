package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds accent-color-derived styles.
type Theme struct {
	accentStyle     lipgloss.Style // header background
	barStyle        lipgloss.Style // filled part of a slider
	borderFocused   lipgloss.Style
	borderUnfocused lipgloss.Style
}

// NewTheme creates a Theme from a hex accent color. Empty uses the default.
func NewTheme(accentColor string) Theme {
	color := defaultAccentColor
	if accentColor != "" {
		color = accentColor
	}
	c := lipgloss.Color(color)
	return Theme{
		accentStyle: lipgloss.NewStyle().
			Background(c).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true),
		barStyle: lipgloss.NewStyle().
			Foreground(c),
		borderFocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c),
		borderUnfocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorGray),
	}
}

// PanelBorderStyle returns the border for a panel depending on focus.
func (t Theme) PanelBorderStyle(focused bool) lipgloss.Style {
	if focused {
		return t.borderFocused
	}
	return t.borderUnfocused
}

// lineKind selects how an event log line is styled.
type lineKind int

const (
	lineInfo lineKind = iota
	lineOpening
	lineOK
	lineError
	lineStdout
	lineStderr
)

// renderLine formats one event log line, truncated to width.
func renderLine(at time.Time, kind lineKind, text string, width int) string {
	ts := timestampStyle.Render(fmt.Sprintf("[%s]", at.Format("15:04:05")))
	text = singleLine(text)
	maxText := width - 13
	if maxText < 20 {
		maxText = 20
	}
	if runes := []rune(text); len(runes) > maxText {
		text = string(runes[:maxText-1]) + "…"
	}

	var body string
	switch kind {
	case lineOpening:
		body = openingStyle.Render("▶ " + text)
	case lineOK:
		body = okStyle.Render("✓ " + text)
	case lineError:
		body = errorStyle.Render("✗ " + text)
	case lineStdout:
		body = infoStyle.Render("│ " + text)
	case lineStderr:
		body = stderrStyle.Render("│ " + text)
	default:
		body = infoStyle.Render(text)
	}
	return ts + "  " + body
}

// slider renders value on a 0..ceiling scale as a bar of the given width.
func (t Theme) slider(value, ceiling uint32, width int) string {
	if width < 1 {
		return ""
	}
	filled := int(uint64(value) * uint64(width) / uint64(ceiling))
	if filled > width {
		filled = width
	}
	return t.barStyle.Render(strings.Repeat("█", filled)) +
		timestampStyle.Render(strings.Repeat("░", width-filled))
}

// singleLine collapses newlines so a message fits on one row.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
