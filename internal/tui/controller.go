package tui

import (
	"context"

	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/supervisor"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/typing"
)

// Controller is the application surface the TUI drives. *app.App
// implements it.
type Controller interface {
	OpenBrowser(ctx context.Context) error
	KillBrowser() bool
	// Quit kills any browser without blocking the caller.
	Quit() <-chan struct{}
	Running() (supervisor.RunInfo, bool)

	TypingConfig() typing.Config
	UpdateTypeSpeed(minSpeed, maxSpeed uint32) (typing.Config, error)
	UpdateErrRate(rate uint32) (typing.Config, error)

	SaveAPIKey(key string) error
	GetAPIKey() (string, bool, error)

	OpenExternal(ctx context.Context, rawURL string) error
}
