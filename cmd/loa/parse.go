package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"loa/internal/diagfmt"
	"loa/internal/driver"
	"loa/internal/project"
	"loa/internal/source"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] file.loa|-",
	Short: "Parse a Loa source file and output its syntax tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runParse(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}

	src, err := source.Open(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}
	parsed := driver.Parse(src)
	if len(parsed.Diagnostics) > 0 {
		cfg := project.Default(filepath.Dir(parsed.Source.URI.Path()))
		res := &driver.Result{
			Sources:     map[source.URI]*source.Source{parsed.Source.URI: parsed.Source},
			Diagnostics: parsed.Diagnostics,
		}
		if err := printDiagnostics(cmd, cfg, res); err != nil {
			return err
		}
	}

	switch format {
	case "pretty":
		err = diagfmt.FormatASTPretty(cmd.OutOrStdout(), parsed.Tree)
	case "json":
		err = diagfmt.FormatASTJSON(cmd.OutOrStdout(), parsed.Tree)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	if err != nil {
		return err
	}
	if len(parsed.Diagnostics) > 0 {
		return driver.ErrDiagnostics
	}
	return nil
}
