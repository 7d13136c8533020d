package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"loa/internal/driver"
	"loa/internal/vm"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] [file.loa|directory...]",
	Short: "Compile and run a Loa program",
	Long: `Run builds the program with its main bootstrap and evaluates it. The value
left by the program, if any, is printed to stdout.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().Bool("no-cache", false, "do not read or write the build cache")
}

func runRun(cmd *cobra.Command, args []string) error {
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	cfg, err := loadProject(cmd, args)
	if err != nil {
		return err
	}
	srcs, err := driver.Collect(cfg, driver.Inputs{Paths: args, Main: true})
	if err != nil {
		return err
	}
	opts := buildOptions(cmd, cfg)
	if !noCache {
		if cache, cerr := driver.OpenStore("loa"); cerr == nil {
			opts.Cache = cache
		}
	}

	res, err := driver.Build(cmd.Context(), srcs, opts)
	if perr := printDiagnostics(cmd, cfg, res); perr != nil {
		return perr
	}
	if err != nil {
		printTimings(cmd, res)
		return reportBuildError(cmd.ErrOrStderr(), err)
	}

	rt := vm.NewTerminalRuntime(useColor(cmd, os.Stderr))
	rt.Out = cmd.ErrOrStderr()
	out, err := driver.Run(cmd.Context(), res.Instructions, rt, nil)
	printTimings(cmd, res)
	if err != nil {
		return err
	}
	if out.Value != nil {
		fmt.Fprintln(cmd.OutOrStdout(), out.Value.String())
	}
	if on, _ := cmd.Root().PersistentFlags().GetBool("timings"); on {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %-12s %8.2f ms\n", "run", float64(out.Elapsed.Microseconds())/1000)
	}
	return nil
}
