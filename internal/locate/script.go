package locate

import (
	"iter"
	"path/filepath"
)

// ScriptName is the file name of the bundled automation script.
const ScriptName = "puppeteer-node.cjs"

// scriptSourceDir is where the script lives in a source checkout. Bundles
// preserve it below an "_up_" directory.
var scriptSourceDir = []string{"src", "main", "utils"}

// ScriptCandidates yields the places the automation script may live, in
// priority order: next to the executable (packaged builds, including the
// macOS app bundle layout), then the working directory (development).
// Executable and working directory lookups happen only if iteration
// reaches them.
func (l *Locator) ScriptCandidates() iter.Seq[string] {
	return func(yield func(string) bool) {
		if exe, err := l.Executable(); err == nil {
			for c := range l.bundleCandidates(filepath.Dir(exe)) {
				if !yield(c) {
					return
				}
			}
		}

		source := filepath.Join(append(scriptSourceDir, ScriptName)...)
		if cwd, err := l.Getwd(); err == nil {
			if !yield(filepath.Join(cwd, source)) {
				return
			}
			if !yield(filepath.Join(cwd, "..", source)) {
				return
			}
		}
		if !yield(source) {
			return
		}
		yield(filepath.Join("..", source))
	}
}

func (l *Locator) bundleCandidates(exeDir string) iter.Seq[string] {
	preserved := filepath.Join(append(append([]string{"_up_"}, scriptSourceDir...), ScriptName)...)
	return func(yield func(string) bool) {
		if !yield(filepath.Join(exeDir, ScriptName)) {
			return
		}
		if !yield(filepath.Join(exeDir, "resources", ScriptName)) {
			return
		}
		if l.GOOS == "darwin" {
			// <App>.app/Contents/MacOS/<exe> -> <App>.app/Contents/Resources
			resources := filepath.Join(filepath.Dir(exeDir), "Resources")
			if !yield(filepath.Join(resources, ScriptName)) {
				return
			}
			yield(filepath.Join(resources, preserved))
			return
		}
		yield(filepath.Join(exeDir, "resources", preserved))
	}
}

// Script locates the automation script. override, when set, is tried first.
func (l *Locator) Script(override string) (string, error) {
	return l.find("automation script", override, l.ScriptCandidates())
}
