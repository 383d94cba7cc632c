package app

import (
	"errors"
	"os"

	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/locate"
)

// Check is one line of a Doctor report.
type Check struct {
	Name    string
	Path    string
	OK      bool
	Checked []string
	Err     error
}

// Doctor probes everything a browser run needs without starting one.
func (a *App) Doctor() []Check {
	var checks []Check
	probe := func(name string, find func(string) (string, error), override string) {
		path, err := find(override)
		c := Check{Name: name, Path: path, OK: err == nil, Err: err}
		var nf *locate.NotFoundError
		if errors.As(err, &nf) {
			c.Checked = nf.Checked
		}
		checks = append(checks, c)
	}
	probe(ComponentTarget, a.probe.Chrome, a.over.Target)
	probe(ComponentScript, a.probe.Script, a.over.Script)
	probe(ComponentRuntime, a.probe.Runtime, a.over.Runtime)

	cfg := Check{Name: "config file", Path: a.sync.Path()}
	if _, ok, err := a.sync.Load(); err != nil {
		cfg.Err = err
	} else {
		cfg.OK = ok
		if !ok {
			cfg.Err = os.ErrNotExist
		}
	}
	checks = append(checks, cfg)

	key := Check{Name: "api key", Path: a.secret.Path()}
	if _, ok, err := a.secret.Load(); err != nil {
		key.Err = err
	} else {
		key.OK = ok
		if !ok {
			key.Err = os.ErrNotExist
		}
	}
	checks = append(checks, key)
	return checks
}
