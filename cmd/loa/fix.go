package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"loa/internal/driver"
	"loa/internal/fix"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] [file.loa|directory...]",
	Short: "Apply the fixes suggested by diagnostics",
	Long: `Fix checks the program and rewrites the modules with the edits suggested by
its diagnostics. By default only the first fix is applied; --all applies
every fix that does not conflict with another, --id applies one by name.`,
	RunE: runFix,
}

func init() {
	fixCmd.Flags().Bool("all", false, "apply every available fix")
	fixCmd.Flags().String("id", "", "apply the fix with this id")
	fixCmd.Flags().Bool("list", false, "list the available fixes without applying them")
}

func runFix(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	all, err := flags.GetBool("all")
	if err != nil {
		return fmt.Errorf("failed to get all flag: %w", err)
	}
	id, err := flags.GetString("id")
	if err != nil {
		return fmt.Errorf("failed to get id flag: %w", err)
	}
	list, err := flags.GetBool("list")
	if err != nil {
		return fmt.Errorf("failed to get list flag: %w", err)
	}
	if all && id != "" {
		return errors.New("--all and --id are mutually exclusive")
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

	out := cmd.OutOrStdout()
	if list {
		cands, _ := fix.Candidates(res.Diagnostics)
		for _, c := range cands {
			fmt.Fprintf(out, "%s  %s  %s\n", c.ID, c.Diag.Primary.Start.Display(cfg.Root), c.Title)
		}
		return nil
	}

	result, err := fix.Apply(res.Sources, res.Diagnostics, fix.Options{All: all, ID: id, Write: true})
	if result != nil && !quiet(cmd) {
		for _, a := range result.Applied {
			fmt.Fprintf(out, "fixed %s: %s\n", a.URI.Display(cfg.Root), a.Title)
		}
		for _, s := range result.Skipped {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %s\n", s.ID, s.Reason)
		}
	}
	if errors.Is(err, fix.ErrNoFixes) {
		if !quiet(cmd) {
			fmt.Fprintln(out, "nothing to fix")
		}
		return nil
	}
	return err
}
