package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"loa/internal/diagfmt"
	"loa/internal/driver"
	"loa/internal/project"
	"loa/internal/semantics"
	"loa/internal/vm"
)

var replCmd = &cobra.Command{
	Use:   "repl [flags] [file.loa|directory...]",
	Short: "Start an interactive Loa session",
	Long: `Repl loads the project (or the given files) and evaluates lines read from
stdin against it. A line that stops in the middle of a construct continues
on the next one. ":t expr." prints the type of an expression, ":b expr."
lists what it responds to.`,
	RunE: runREPL,
}

const (
	promptLine         = "loa> "
	promptContinuation = "...> "
)

// printer answers the :type and :behaviours directives.
type printer struct {
	out io.Writer
}

func (p printer) ShowType(t semantics.Type) {
	fmt.Fprintln(p.out, t.String())
}

func (p printer) ShowBehaviours(t semantics.Type, types *semantics.Types) {
	var lines []string
	for _, b := range types.Behaviours(t) {
		lines = append(lines, b.String())
	}
	slices.Sort(lines)
	for _, line := range lines {
		fmt.Fprintln(p.out, "  "+line)
	}
}

func runREPL(cmd *cobra.Command, args []string) error {
	cfg, err := loadProject(cmd, args)
	if err != nil {
		return err
	}
	srcs, err := driver.Collect(cfg, driver.Inputs{Paths: args})
	if err != nil {
		return err
	}
	rt := vm.NewTerminalRuntime(useColor(cmd, os.Stderr))
	rt.Out = cmd.ErrOrStderr()

	ctx := cmd.Context()
	session, res, err := driver.NewSession(ctx, srcs, rt, buildOptions(cmd, cfg))
	if perr := printDiagnostics(cmd, cfg, res); perr != nil {
		return perr
	}
	if err != nil {
		return reportBuildError(cmd.ErrOrStderr(), err)
	}

	interactive := isTerminal(os.Stdin)
	out := cmd.OutOrStdout()
	directives := printer{out: out}
	in := bufio.NewScanner(cmd.InOrStdin())

	var pending strings.Builder
	prompt := func() {
		if !interactive {
			return
		}
		if pending.Len() == 0 {
			fmt.Fprint(out, promptLine)
		} else {
			fmt.Fprint(out, promptContinuation)
		}
	}

	for prompt(); in.Scan(); prompt() {
		pending.WriteString(in.Text())
		pending.WriteByte('\n')
		code := pending.String()
		if driver.Incomplete(code) {
			continue
		}
		pending.Reset()
		if strings.TrimSpace(code) == "" {
			continue
		}
		evalLine(cmd, cfg, session, code, directives)
	}
	if interactive {
		fmt.Fprintln(out)
	}
	return in.Err()
}

// evalLine выполняет строку; ошибки печатаются, сессия продолжается.
func evalLine(cmd *cobra.Command, cfg project.Config, session *driver.Session, code string, directives printer) {
	line, err := session.Eval(cmd.Context(), code, directives)
	if line != nil && len(line.Diagnostics) > 0 {
		// отвергнутая строка не попадает в сессию, но нужна для вывода
		sources := maps.Clone(session.Sources())
		sources[line.Source.URI] = line.Source
		_ = diagfmt.Pretty(cmd.ErrOrStderr(), line.Diagnostics, diagfmt.Sources(sources), diagfmt.PrettyOpts{
			Color:   useColor(cmd, os.Stderr),
			BaseDir: cfg.Root,
		})
	}
	var panicErr *vm.Panic
	switch {
	case err == nil:
		if line.Value != nil {
			fmt.Fprintln(cmd.OutOrStdout(), line.Value.String())
		}
	case errors.Is(err, driver.ErrDiagnostics), errors.As(err, &panicErr):
	default:
		if rerr := reportBuildError(cmd.ErrOrStderr(), err); !errors.Is(rerr, driver.ErrDiagnostics) {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", rerr)
		}
	}
}
