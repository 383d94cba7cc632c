package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/config"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/secret"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/store"
	"github.com/LISSConsulting/LISSTech.TypeWinner/internal/typing"
)

func openCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "open",
		Short: "Open the typing browser and stream its output until it closes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlain(cmd.Context(), *flags, cmd.OutOrStdout())
		},
	}
}

// settingsEnv builds an env for commands that only read or change
// settings.
func settingsEnv(cmd *cobra.Command, flags *globalFlags) (*env, error) {
	return newEnv(cmdContext(cmd), envOptions{flags: *flags})
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func statusCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the typing config and whether an API key is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := settingsEnv(cmd, flags)
			if err != nil {
				return err
			}
			defer e.close()

			out := cmd.OutOrStdout()
			fmt.Fprint(out, formatTyping(e.app.TypingConfig(), e.app.ConfigPath()))
			key, ok, err := e.app.GetAPIKey()
			switch {
			case err != nil:
				fmt.Fprintf(out, "  %-12s unreadable: %v\n", "api key:", err)
			case ok:
				fmt.Fprintf(out, "  %-12s %s\n", "api key:", secret.Redact(key))
			default:
				fmt.Fprintf(out, "  %-12s not set\n", "api key:")
			}
			return nil
		},
	}
}

func speedCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "speed <min> <max>",
		Short: fmt.Sprintf("Set the typing speed range (0-%d, higher is faster)", typing.DelayCeiling),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			minSpeed, err := parseUint32(args[0])
			if err != nil {
				return fmt.Errorf("min: %w", err)
			}
			maxSpeed, err := parseUint32(args[1])
			if err != nil {
				return fmt.Errorf("max: %w", err)
			}

			e, err := settingsEnv(cmd, flags)
			if err != nil {
				return err
			}
			defer e.close()

			cfg, err := e.app.UpdateTypeSpeed(minSpeed, maxSpeed)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatTyping(cfg, e.app.ConfigPath()))
			return nil
		},
	}
}

func errRateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "err-rate <percent>",
		Short: "Set the chance of a typo per character",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rate, err := parseUint32(args[0])
			if err != nil {
				return err
			}
			if rate > 100 {
				return fmt.Errorf("error rate %d is not a percentage (0-100)", rate)
			}

			e, err := settingsEnv(cmd, flags)
			if err != nil {
				return err
			}
			defer e.close()

			cfg, err := e.app.UpdateErrRate(rate)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatTyping(cfg, e.app.ConfigPath()))
			return nil
		},
	}
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%q is not a non-negative integer", s)
	}
	return uint32(v), nil
}

func keyCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the vision API key passed to the browser script",
	}
	cmd.AddCommand(keySetCmd(flags), keyShowCmd(flags))
	return cmd
}

func keySetCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set [key]",
		Short: "Store the API key (prompted for when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				var err error
				key, err = readKey(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
			}
			key = strings.TrimSpace(key)
			if key == "" {
				return errors.New("empty API key")
			}

			e, err := settingsEnv(cmd, flags)
			if err != nil {
				return err
			}
			defer e.close()

			if err := e.app.SaveAPIKey(key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved API key %s\n", secret.Redact(key))
			return nil
		},
	}
}

// readKey reads one line from in. A terminal gets a prompt and no echo.
func readKey(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "API key: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read key: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read key: %w", err)
	}
	return line, nil
}

func keyShowCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the stored API key, masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := settingsEnv(cmd, flags)
			if err != nil {
				return err
			}
			defer e.close()

			key, ok, err := e.app.GetAPIKey()
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "No API key stored. Set one with 'typewinner key set'.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), secret.Redact(key))
			return nil
		},
	}
}

func openURLCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "open-url <url>",
		Short: "Open an http(s) URL in the default browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := settingsEnv(cmd, flags)
			if err != nil {
				return err
			}
			defer e.close()
			return e.app.OpenExternal(cmdContext(cmd), args[0])
		},
	}
}

func doctorCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check for Chrome, Node.js, the browser script, the config file and the API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := settingsEnv(cmd, flags)
			if err != nil {
				return err
			}
			defer e.close()

			checks := e.app.Doctor()
			fmt.Fprint(cmd.OutOrStdout(), formatDoctor(checks))
			if n := requiredFailures(checks); n > 0 {
				return fmt.Errorf("%d required component(s) missing", n)
			}
			return nil
		},
	}
}

func historyCmd(flags *globalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent browser runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(*flags)
			if err != nil {
				return err
			}
			path := filepath.Join(s.dirs.Data, store.HistoryFile)
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				fmt.Fprint(cmd.OutOrStdout(), formatHistory(nil, time.Now()))
				return nil
			}

			ctx := cmdContext(cmd)
			h, err := store.OpenHistory(ctx, path)
			if err != nil {
				return err
			}
			defer h.Close()

			runs, err := h.Recent(ctx, limit)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatHistory(runs, time.Now()))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}

func logsCmd(flags *globalFlags) *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "logs [session]",
		Short: "List output logs, or print one (the latest with --run or 'latest')",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(*flags)
			if err != nil {
				return err
			}
			dir := s.dirs.LogDir()
			files, err := store.Sessions(dir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(args) == 0 && runID == "" {
				infos := make([]sessionInfo, 0, len(files))
				for _, f := range files {
					st, err := os.Stat(f)
					if err != nil {
						continue
					}
					infos = append(infos, sessionInfo{Path: f, Size: st.Size(), ModTime: st.ModTime()})
				}
				fmt.Fprint(out, formatSessions(infos, time.Now()))
				return nil
			}

			name := "latest"
			if len(args) == 1 {
				name = args[0]
			}
			path, err := resolveSession(dir, files, name)
			if err != nil {
				return err
			}
			recs, err := store.ReadSession(path, runID, nil)
			if err != nil {
				return err
			}
			fmt.Fprint(out, formatRecords(recs))
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "only lines from this run ID")
	return cmd
}

// resolveSession maps "latest", a file name, or a path to a session file.
func resolveSession(dir string, files []string, name string) (string, error) {
	if name == "latest" {
		if len(files) == 0 {
			return "", errors.New("no output logs yet")
		}
		return files[len(files)-1], nil
	}
	if strings.ContainsRune(name, filepath.Separator) {
		return name, nil
	}
	if !strings.HasSuffix(name, ".jsonl") {
		name += ".jsonl"
	}
	return filepath.Join(dir, name), nil
}

func initCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create " + config.FileName + " in the config directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs, err := config.DefaultDirs(flags.dataDir)
			if err != nil {
				return err
			}
			if flags.configDir != "" {
				dirs.Config = flags.configDir
			}
			path, err := config.InitFile(dirs.Config)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	}
}
