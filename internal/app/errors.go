package app

import (
	"errors"
	"fmt"

	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/locate"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/supervisor"
)

// Components named by EnvironmentMissingError.
const (
	ComponentTarget  = "target binary"
	ComponentScript  = "script"
	ComponentRuntime = "runtime"
)

// ErrAlreadyRunning is returned by OpenBrowser while a browser is open.
var ErrAlreadyRunning = supervisor.ErrAlreadyRunning

// ErrInvalidURL is returned by OpenExternal for anything but http(s) URLs.
var ErrInvalidURL = errors.New("app: only http and https URLs can be opened")

// EnvironmentMissingError reports that something a browser run needs could
// not be found. Checked lists every location that was tried.
type EnvironmentMissingError struct {
	Component string
	Checked   []string
	Err       error
}

func (e *EnvironmentMissingError) Error() string {
	return fmt.Sprintf("app: %s missing: %v", e.Component, e.Err)
}

func (e *EnvironmentMissingError) Unwrap() error { return e.Err }

func missing(component string, err error) error {
	em := &EnvironmentMissingError{Component: component, Err: err}
	var nf *locate.NotFoundError
	if errors.As(err, &nf) {
		em.Checked = nf.Checked
	}
	return em
}
