//go:build !windows

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// registerQuitHandler registers a SIGQUIT handler that kills the browser
// and exits immediately, skipping the normal shutdown.
func registerQuitHandler(kill func() bool) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGQUIT)
	go func() {
		<-sigs
		fmt.Fprintln(os.Stderr, "SIGQUIT: closing browser and exiting")
		kill()
		os.Exit(1)
	}()
}
