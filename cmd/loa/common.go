package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"loa/internal/diagfmt"
	"loa/internal/driver"
	"loa/internal/generation"
	"loa/internal/project"
)

type colorMode string

const (
	colorAuto colorMode = "auto"
	colorOn   colorMode = "on"
	colorOff  colorMode = "off"
)

// readColorMode разбирает значения --color и --ui.
func readColorMode(flag, value string) (colorMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return colorAuto, nil
	case "on":
		return colorOn, nil
	case "off":
		return colorOff, nil
	default:
		return "", fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
	}
}

func (m colorMode) enabled(f *os.File) bool {
	switch m {
	case colorOn:
		return true
	case colorOff:
		return false
	default:
		return isTerminal(f)
	}
}

// useColor reports whether output to f should be coloured.
func useColor(cmd *cobra.Command, f *os.File) bool {
	value, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false
	}
	mode, err := readColorMode("color", value)
	if err != nil {
		return false
	}
	return mode.enabled(f)
}

func quiet(cmd *cobra.Command) bool {
	q, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	return q
}

// loadProject resolves loa.toml from the first path argument (or the
// working directory) and applies the global overrides.
func loadProject(cmd *cobra.Command, args []string) (project.Config, error) {
	start := "."
	if len(args) > 0 {
		start = args[0]
	}
	cfg, err := project.Load(start)
	if err != nil {
		return project.Config{}, err
	}
	flags := cmd.Root().PersistentFlags()
	sdk, err := flags.GetString("sdk")
	if err != nil {
		return project.Config{}, err
	}
	cfg.ResolveSDK(sdk)
	if maxDiags, err := flags.GetInt("max-diagnostics"); err == nil && maxDiags > 0 {
		cfg.MaxDiagnostics = maxDiags
	}
	return cfg, nil
}

func buildOptions(cmd *cobra.Command, cfg project.Config) driver.Options {
	opts := driver.OptionsFor(cfg)
	if jobs, err := cmd.Root().PersistentFlags().GetInt("jobs"); err == nil {
		opts.Jobs = jobs
	}
	return opts
}

func pathMode(cmd *cobra.Command) (diagfmt.PathMode, error) {
	s, _ := cmd.Root().PersistentFlags().GetString("paths")
	return diagfmt.ParsePathMode(s)
}

// printDiagnostics writes the diagnostics of res to stderr, followed by the
// summary line.
func printDiagnostics(cmd *cobra.Command, cfg project.Config, res *driver.Result) error {
	if res == nil || len(res.Diagnostics) == 0 {
		return nil
	}
	mode, err := pathMode(cmd)
	if err != nil {
		return err
	}
	out := cmd.ErrOrStderr()
	colored := useColor(cmd, os.Stderr)
	opts := diagfmt.PrettyOpts{
		Color:     colored,
		Context:   1,
		PathMode:  mode,
		BaseDir:   cfg.Root,
		ShowNotes: true,
		ShowFixes: true,
	}
	if err := diagfmt.Pretty(out, res.Diagnostics, diagfmt.Sources(res.Sources), opts); err != nil {
		return err
	}
	return diagfmt.Summary(out, res.Diagnostics, colored)
}

// reportBuildError turns what Build returned into the command's error.
// Internal compiler errors get their own banner: the checkers should have
// rejected the program.
func reportBuildError(out io.Writer, err error) error {
	var genErr *generation.Error
	if errors.As(err, &genErr) {
		fmt.Fprintf(out, "internal compiler error: %v\n", genErr)
		return driver.ErrDiagnostics
	}
	return err
}

func printTimings(cmd *cobra.Command, res *driver.Result) {
	on, _ := cmd.Root().PersistentFlags().GetBool("timings")
	if !on || res == nil {
		return
	}
	fmt.Fprint(cmd.ErrOrStderr(), res.Timings.Summary())
	if res.CacheHit {
		fmt.Fprintln(cmd.ErrOrStderr(), "  (cached)")
	}
}
