package tui

// Rect represents a rectangular region of the terminal.
type Rect struct {
	X, Y, Width, Height int
}

// Layout holds the computed panel geometry for a given terminal size.
type Layout struct {
	Header, Footer Rect
	Controls, Log  Rect
	TooSmall       bool // true below MinWidth×MinHeight
}

// Minimum usable terminal size.
const (
	MinWidth  = 60
	MinHeight = 16
)

// controlsHeight fits the speed, error rate and key rows plus borders.
const controlsHeight = 7

// Calculate computes the panel layout for a terminal of the given size:
// a one-row header, the controls panel, the event log taking the rest, and
// a one-row footer.
func Calculate(width, height int) Layout {
	if width < MinWidth || height < MinHeight {
		return Layout{TooSmall: true}
	}
	logH := height - 2 - controlsHeight
	return Layout{
		Header:   Rect{X: 0, Y: 0, Width: width, Height: 1},
		Controls: Rect{X: 0, Y: 1, Width: width, Height: controlsHeight},
		Log:      Rect{X: 0, Y: 1 + controlsHeight, Width: width, Height: logH},
		Footer:   Rect{X: 0, Y: height - 1, Width: width, Height: 1},
	}
}

// innerDims returns the content dimensions of a bordered panel.
func innerDims(r Rect) (w, h int) {
	w = r.Width - 2
	if w < 1 {
		w = 1
	}
	h = r.Height - 2
	if h < 1 {
		h = 1
	}
	return
}
