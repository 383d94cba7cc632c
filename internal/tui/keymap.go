package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every binding the TUI responds to.
type KeyMap struct {
	Open    key.Binding
	Kill    key.Binding
	MinDown key.Binding
	MinUp   key.Binding
	MaxUp   key.Binding
	MaxDown key.Binding
	ErrDown key.Binding
	ErrUp   key.Binding
	APIKey  key.Binding
	Console key.Binding
	Focus   key.Binding
	Follow  key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Open:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open browser")),
		Kill:    key.NewBinding(key.WithKeys("k"), key.WithHelp("k", "close browser")),
		MinDown: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "min speed -")),
		MinUp:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "min speed +")),
		MaxUp:   key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "max speed +")),
		MaxDown: key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "max speed -")),
		ErrDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "error rate -")),
		ErrUp:   key.NewBinding(key.WithKeys("=", "+"), key.WithHelp("+", "error rate +")),
		APIKey:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "set API key")),
		Console: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "get a key")),
		Focus:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch panel")),
		Follow:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "follow log")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Kill, k.MinUp, k.MaxUp, k.ErrUp, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Open, k.Kill, k.APIKey, k.Console},
		{k.MinDown, k.MinUp, k.MaxDown, k.MaxUp},
		{k.ErrDown, k.ErrUp, k.Focus, k.Follow},
		{k.Help, k.Quit},
	}
}
