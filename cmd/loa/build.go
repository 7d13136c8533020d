package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"loa/internal/driver"
	"loa/internal/source"
	"loa/internal/ui"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [file.loa|directory...]",
	Short: "Compile a Loa program to bytecode",
	Long: `Build compiles the project (or the given files) together with the bootstrap
line that sends run to the main class, and writes the bytecode next to the
project in build/<name>.loavmc. Unchanged programs come from the cache.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringP("out", "o", "", "output file (default build/<name>.loavmc under the project root)")
	buildCmd.Flags().Bool("no-main", false, "compile the modules only, without the main bootstrap")
	buildCmd.Flags().Bool("no-cache", false, "do not read or write the build cache")
	buildCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	outPath, err := flags.GetString("out")
	if err != nil {
		return fmt.Errorf("failed to get out flag: %w", err)
	}
	noMain, err := flags.GetBool("no-main")
	if err != nil {
		return fmt.Errorf("failed to get no-main flag: %w", err)
	}
	noCache, err := flags.GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	uiValue, err := flags.GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	uiMode, err := readColorMode("ui", uiValue)
	if err != nil {
		return err
	}

	cfg, err := loadProject(cmd, args)
	if err != nil {
		return err
	}
	srcs, err := driver.Collect(cfg, driver.Inputs{Paths: args, Main: !noMain})
	if err != nil {
		return err
	}
	opts := buildOptions(cmd, cfg)
	if !noCache {
		cache, cerr := driver.OpenStore("loa")
		if cerr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: build cache disabled: %v\n", cerr)
		} else {
			opts.Cache = cache
		}
	}

	var res *driver.Result
	if !quiet(cmd) && uiMode.enabled(os.Stderr) {
		res, err = buildWithProgress(cmd.Context(), "loa build", srcs, opts)
	} else {
		res, err = driver.Build(cmd.Context(), srcs, opts)
	}
	if perr := printDiagnostics(cmd, cfg, res); perr != nil {
		return perr
	}
	printTimings(cmd, res)
	if err != nil {
		return reportBuildError(cmd.ErrOrStderr(), err)
	}

	if outPath == "" {
		outPath = driver.OutputPath(filepath.Join(cfg.Root, "build"), cfg.Name)
	}
	if err := driver.WriteBytecode(outPath, res.Instructions); err != nil {
		return err
	}
	if !quiet(cmd) {
		note := ""
		if res.CacheHit {
			note = " (cached)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s%s\n", source.FileURI(outPath).Display(cfg.Root), note)
	}
	return nil
}

// buildWithProgress runs Build on a goroutine and renders its events until
// it finishes.
func buildWithProgress(ctx context.Context, title string, srcs []*source.Source, opts driver.Options) (*driver.Result, error) {
	events := make(chan driver.Event, 64)
	opts.Progress = driver.ToChannel(ctx, events)

	files := make([]string, 0, len(srcs))
	for _, src := range srcs {
		files = append(files, src.URI.String())
	}

	var (
		res *driver.Result
		err error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(events)
		res, err = driver.Build(ctx, srcs, opts)
	}()

	if uiErr := ui.RunProgress(title, files, events, os.Stderr); uiErr != nil {
		fmt.Fprintf(os.Stderr, "warning: progress UI failed: %v\n", uiErr)
		// дочитываем события, чтобы сборка не встала на канале
		go func() {
			for range events {
			}
		}()
	}
	<-done
	return res, err
}
