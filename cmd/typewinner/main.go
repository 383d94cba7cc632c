// Package main is the entry point for the TypeWinner CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "typewinner",
		Short: "TypeWinner: a human-paced typing browser",
		Long: `TypeWinner opens Google Chrome under an automation script that types
at a configurable, human-looking pace. Run without a subcommand for the
terminal UI; pipe or pass --no-tui for plain output.`,
		Version:       version,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.noTUI || !term.IsTerminal(int(os.Stdout.Fd())) {
				return runPlain(cmd.Context(), flags, cmd.OutOrStdout())
			}
			return runTUI(cmd.Context(), flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configDir, "config-dir", "", "directory holding typewinner.toml, typeConfig.json and the API key")
	pf.StringVar(&flags.dataDir, "data-dir", "", "directory for the browser profile, logs and history")
	pf.BoolVar(&flags.verbose, "verbose", false, "debug logging")
	root.Flags().BoolVar(&flags.noTUI, "no-tui", false, "print events instead of starting the terminal UI")

	root.AddCommand(
		openCmd(&flags),
		statusCmd(&flags),
		speedCmd(&flags),
		errRateCmd(&flags),
		keyCmd(&flags),
		openURLCmd(&flags),
		doctorCmd(&flags),
		historyCmd(&flags),
		logsCmd(&flags),
		initCmd(&flags),
	)
	return root
}

// signalContext returns a context that is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
