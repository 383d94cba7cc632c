package tui

import (
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/notify"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/typing"
)

// eventMsg wraps a notifier event.
type eventMsg notify.Event

// outputMsg wraps a line of browser output.
type outputMsg OutputLine

// ConfigChangedMsg reports that the typing config was changed outside the
// TUI, e.g. by editing typeConfig.json. Send it with Program.Send.
type ConfigChangedMsg typing.Config

// openResultMsg carries the result of OpenBrowser.
type openResultMsg struct{ err error }

// configResultMsg carries the result of a speed or error-rate update.
type configResultMsg struct {
	cfg typing.Config
	err error
}

// keySavedMsg carries the result of SaveAPIKey.
type keySavedMsg struct{ err error }

// keyStatusMsg reports whether an API key is stored.
type keyStatusMsg struct {
	ok  bool
	err error
}

// externalOpenedMsg carries the result of OpenExternal.
type externalOpenedMsg struct {
	url string
	err error
}
