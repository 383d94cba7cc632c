package app

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// Opener hands a URL to the desktop.
type Opener func(ctx context.Context, rawURL string) error

// openCommand returns the program that opens a URL on goos.
func openCommand(goos, rawURL string) (string, []string) {
	switch goos {
	case "windows":
		// Not "cmd /C start": cmd would interpret & | ^ in the query.
		return "rundll32", []string{"url.dll,FileProtocolHandler", rawURL}
	case "darwin":
		return "open", []string{rawURL}
	default:
		return "xdg-open", []string{rawURL}
	}
}

// SystemOpener starts the platform's URL handler and does not wait for it.
func SystemOpener() Opener {
	return func(_ context.Context, rawURL string) error {
		name, args := openCommand(runtime.GOOS, rawURL)
		cmd := exec.Command(name, args...)
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("app: open url: %w", err)
		}
		go cmd.Wait() //nolint:errcheck
		return nil
	}
}

// OpenExternal opens an http or https URL in the system browser.
func (a *App) OpenExternal(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return a.opener(ctx, u.String())
}
