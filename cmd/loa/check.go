package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"loa/internal/diagfmt"
	"loa/internal/driver"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [file.loa|directory...]",
	Short: "Parse and check a Loa program without generating bytecode",
	Long: `Check loads the project (or the given files), parses and analyses every module
and reports diagnostics. Without arguments the project around the working
directory is checked.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format = strings.ToLower(format)
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unknown format: %s", format)
	}

	cfg, err := loadProject(cmd, args)
	if err != nil {
		return err
	}
	srcs, err := driver.Collect(cfg, driver.Inputs{Paths: args})
	if err != nil {
		return err
	}
	opts := buildOptions(cmd, cfg)
	opts.CheckOnly = true
	res, err := driver.Build(cmd.Context(), srcs, opts)
	if err != nil && !errors.Is(err, driver.ErrDiagnostics) {
		return err
	}

	if format == "json" {
		mode, perr := pathMode(cmd)
		if perr != nil {
			return perr
		}
		jsonErr := diagfmt.JSON(cmd.OutOrStdout(), res.Diagnostics, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         mode,
			BaseDir:          cfg.Root,
			IncludeNotes:     true,
			IncludeFixes:     true,
		})
		if jsonErr != nil {
			return jsonErr
		}
	} else if perr := printDiagnostics(cmd, cfg, res); perr != nil {
		return perr
	}
	printTimings(cmd, res)
	if err == nil && !quiet(cmd) && format == "pretty" {
		fmt.Fprintf(cmd.ErrOrStderr(), "checked %d modules\n", len(srcs))
	}
	return err
}
