// Package locate finds the programs and files an automation run needs by
// probing ordered lists of candidate paths. Candidates are produced lazily
// and the first existing one wins; on failure every checked path is
// reported so the user can see where to install things.
package locate

import (
	"fmt"
	"iter"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
)

// NotFoundError reports that none of the candidates for What exist.
type NotFoundError struct {
	What    string
	Checked []string
}

func (e *NotFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s not found", e.What)
	if len(e.Checked) > 0 {
		b.WriteString(". Checked:")
		for _, c := range e.Checked {
			b.WriteString("\n  ")
			b.WriteString(c)
		}
	}
	return b.String()
}

// FirstExisting walks candidates in order and stops at the first path for
// which exists returns true. checked lists every candidate evaluated,
// including the match; when nothing matches it is the full candidate list.
func FirstExisting(candidates iter.Seq[string], exists func(string) bool) (found string, checked []string, ok bool) {
	for c := range candidates {
		checked = append(checked, c)
		if exists(c) {
			return c, checked, true
		}
	}
	return "", checked, false
}

// Locator resolves the browser, the automation script and the script
// runtime. The function fields default to the real OS and exist so tests
// can describe a fake machine.
type Locator struct {
	GOOS       string
	Exists     func(path string) bool
	LookPath   func(file string) (string, error)
	Executable func() (string, error)
	Getwd      func() (string, error)
	Getenv     func(key string) string

	// BrowserSearch is consulted after the fixed Chrome locations.
	// A nil value skips it.
	BrowserSearch func() (string, bool)
}

// New returns a Locator for the current machine.
func New() *Locator {
	return &Locator{
		GOOS:          runtime.GOOS,
		Exists:        fileExists,
		LookPath:      exec.LookPath,
		Executable:    os.Executable,
		Getwd:         os.Getwd,
		Getenv:        os.Getenv,
		BrowserSearch: launcher.LookPath,
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// fromOverride yields override first when it is set.
func fromOverride(override string, rest iter.Seq[string]) iter.Seq[string] {
	return func(yield func(string) bool) {
		if override != "" && !yield(override) {
			return
		}
		for c := range rest {
			if !yield(c) {
				return
			}
		}
	}
}

func (l *Locator) find(what, override string, candidates iter.Seq[string]) (string, error) {
	found, checked, ok := FirstExisting(fromOverride(override, candidates), l.Exists)
	if !ok {
		return "", &NotFoundError{What: what, Checked: checked}
	}
	return found, nil
}
