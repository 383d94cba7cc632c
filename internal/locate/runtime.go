package locate

import (
	"iter"
	"path/filepath"
	"slices"
)

// pathLabel stands in for the $PATH lookup in NotFoundError.Checked.
const pathLabel = "$PATH: node"

// RuntimeFallbacks lists install locations checked when node is not on
// $PATH. GUI launches on macOS often get a minimal PATH, hence Homebrew.
func (l *Locator) RuntimeFallbacks() iter.Seq[string] {
	switch l.GOOS {
	case "darwin":
		return slices.Values([]string{"/usr/local/bin/node", "/opt/homebrew/bin/node"})
	case "linux":
		return slices.Values([]string{"/usr/local/bin/node", "/usr/bin/node"})
	case "windows":
		return func(yield func(string) bool) {
			yield(filepath.Join(l.envOr("PROGRAMFILES", `C:\Program Files`), "nodejs", "node.exe"))
		}
	default:
		return slices.Values([]string(nil))
	}
}

// Runtime locates the Node.js binary that runs the script: override first,
// then $PATH, then RuntimeFallbacks.
func (l *Locator) Runtime(override string) (string, error) {
	var checked []string
	if override != "" {
		if l.Exists(override) {
			return override, nil
		}
		checked = append(checked, override)
	}

	if l.LookPath != nil {
		if path, err := l.LookPath("node"); err == nil {
			return path, nil
		}
	}
	checked = append(checked, pathLabel)

	found, more, ok := FirstExisting(l.RuntimeFallbacks(), l.Exists)
	if ok {
		return found, nil
	}
	return "", &NotFoundError{What: "Node.js", Checked: append(checked, more...)}
}
