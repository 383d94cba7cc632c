package locate

import (
	"iter"
	"path/filepath"
	"slices"
)

// browserSearchLabel stands in for the system-wide browser search in
// NotFoundError.Checked.
const browserSearchLabel = "(system browser search)"

// ChromeCandidates returns the fixed Google Chrome install locations for
// the locator's OS.
func (l *Locator) ChromeCandidates() iter.Seq[string] {
	switch l.GOOS {
	case "windows":
		return func(yield func(string) bool) {
			programFiles := l.envOr("PROGRAMFILES", `C:\Program Files`)
			if !yield(filepath.Join(programFiles, "Google", "Chrome", "Application", "chrome.exe")) {
				return
			}
			programFilesX86 := l.envOr("PROGRAMFILES(X86)", `C:\Program Files (x86)`)
			yield(filepath.Join(programFilesX86, "Google", "Chrome", "Application", "chrome.exe"))
		}
	case "darwin":
		return slices.Values([]string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		})
	case "linux":
		return slices.Values([]string{
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/snap/bin/chromium",
		})
	default:
		return slices.Values([]string(nil))
	}
}

// Chrome locates the browser the script drives. override, when set, is
// tried before the standard locations.
func (l *Locator) Chrome(override string) (string, error) {
	found, checked, ok := FirstExisting(fromOverride(override, l.ChromeCandidates()), l.Exists)
	if ok {
		return found, nil
	}
	if l.BrowserSearch != nil {
		if path, has := l.BrowserSearch(); has {
			return path, nil
		}
		checked = append(checked, browserSearchLabel)
	}
	return "", &NotFoundError{What: "Google Chrome", Checked: checked}
}

func (l *Locator) envOr(key, fallback string) string {
	if l.Getenv != nil {
		if v := l.Getenv(key); v != "" {
			return v
		}
	}
	return fallback
}
