package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"loa/internal/driver"
	"loa/internal/prof"
	"loa/internal/version"
	"loa/internal/vm"
)

var rootCmd = &cobra.Command{
	Use:           "loa",
	Short:         "Loa language compiler and toolchain",
	Long:          `Loa compiles, checks and runs programs written in the Loa language`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cleanup, err := setupTracing(cmd)
		if err != nil {
			return err
		}
		cleanups = append(cleanups, cleanup)
		session, err := startProfiling(cmd)
		if err != nil {
			return err
		}
		cleanups = append(cleanups, func() {
			if err := session.Stop(); err != nil {
				fmt.Fprintf(os.Stderr, "profile: %v\n", err)
			}
		})
		return nil
	},
}

// cleanups run after the command, failed or not: PersistentPostRun is
// skipped when RunE returns an error.
var cleanups []func()

func finish() {
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

func startProfiling(cmd *cobra.Command) (*prof.Session, error) {
	flags := cmd.Root().PersistentFlags()
	var opts prof.Options
	var err error
	if opts.CPU, err = flags.GetString("cpuprofile"); err != nil {
		return nil, err
	}
	if opts.Mem, err = flags.GetString("memprofile"); err != nil {
		return nil, err
	}
	if opts.Trace, err = flags.GetString("runtime-trace"); err != nil {
		return nil, err
	}
	if !opts.Enabled() {
		return nil, nil
	}
	return prof.Start(opts)
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().String("paths", "auto", "how diagnostics print file paths (auto|absolute|relative|basename)")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 0, "maximum number of diagnostics to show (0 = from loa.toml)")
	rootCmd.PersistentFlags().String("sdk", "", "directory replacing the embedded standard library")
	rootCmd.PersistentFlags().Int("jobs", 0, "max parallel parse workers (0=auto)")

	rootCmd.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "stream", "trace storage: stream writes as it goes, ring keeps the last events and writes them on exit (stream|ring)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "events kept in ring mode")
	rootCmd.PersistentFlags().Duration("trace-heartbeat", 0, "heartbeat interval (0 = off)")

	rootCmd.PersistentFlags().String("cpuprofile", "", "write a CPU profile to this file")
	rootCmd.PersistentFlags().String("memprofile", "", "write a heap profile to this file")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to this file")

	err := rootCmd.Execute()
	finish()
	if err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode печатает ошибку, если она ещё не была показана пользователю.
func exitCode(err error) int {
	var panicErr *vm.Panic
	switch {
	case errors.Is(err, driver.ErrDiagnostics):
		// диагностики уже напечатаны
	case errors.As(err, &panicErr):
		// рантайм уже напечатал панику со стеком
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	return 1
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
