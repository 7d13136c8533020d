// Command loavm evaluates compiled .loavmc files, one after another, on a
// single VM: declarations of an earlier file are visible to later ones.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"loa/internal/driver"
	"loa/internal/trace"
	"loa/internal/version"
	"loa/internal/vm"
)

var rootCmd = &cobra.Command{
	Use:           "loavm file.loavmc...",
	Short:         "Run compiled Loa bytecode",
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runFiles,
}

func main() {
	rootCmd.Version = version.Version
	rootCmd.Flags().String("color", "auto", "colorize panics (auto|on|off)")
	rootCmd.Flags().String("trace", "", "trace output file (- for stderr)")

	if err := rootCmd.Execute(); err != nil {
		var panicErr *vm.Panic
		if !errors.As(err, &panicErr) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func runFiles(cmd *cobra.Command, args []string) error {
	colorFlag, err := cmd.Flags().GetString("color")
	if err != nil {
		return err
	}
	tracePath, err := cmd.Flags().GetString("trace")
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if tracePath != "" {
		tracer, terr := trace.New(trace.Config{Level: trace.LevelDetail, Mode: trace.ModeStream, OutputPath: tracePath})
		if terr != nil {
			return fmt.Errorf("failed to create tracer: %w", terr)
		}
		defer func() { _ = tracer.Close() }()
		ctx = trace.WithTracer(ctx, tracer)
	}

	colored := colorFlag == "on" || (colorFlag == "auto" && term.IsTerminal(int(os.Stderr.Fd())))
	machine := vm.New(vm.NewTerminalRuntime(colored)).WithTracer(trace.FromContext(ctx))
	for _, path := range args {
		is, err := driver.ReadBytecode(path)
		if err != nil {
			return err
		}
		out, err := driver.RunOn(ctx, machine, is, nil)
		if err != nil {
			return err
		}
		if out.Value != nil {
			fmt.Fprintln(cmd.OutOrStdout(), out.Value.String())
		}
	}
	return nil
}
