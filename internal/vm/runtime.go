package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Runtime is what the VM needs from its embedder. The REPL, the compiler
// CLI and tests report panics differently.
type Runtime interface {
	PrintPanic(p *Panic)
}

// TerminalRuntime prints panics to a terminal, coloured when asked to.
type TerminalRuntime struct {
	Out   io.Writer
	Color bool
}

// NewTerminalRuntime writes to stderr.
func NewTerminalRuntime(useColor bool) *TerminalRuntime {
	return &TerminalRuntime{Out: os.Stderr, Color: useColor}
}

func (r *TerminalRuntime) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if r.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// PrintPanic writes the message and the call stack, outermost frame first.
func (r *TerminalRuntime) PrintPanic(p *Panic) {
	out := r.Out
	if out == nil {
		out = os.Stderr
	}
	if !r.Color {
		fmt.Fprintf(out, "PANIC: %s\n", p.Message)
	} else {
		fmt.Fprintf(out, "%s %s\n", r.paint(color.Bold, color.FgWhite, color.BgRed).Sprint(" PANIC "), r.paint(color.FgRed).Sprint(p.Message))
	}
	frame := r.paint(color.FgYellow)
	site := r.paint(color.FgHiBlack)
	for _, f := range p.CallStack {
		class := "?"
		if f.Receiver != nil && f.Receiver.class != nil {
			class = f.Receiver.class.Name
		}
		fmt.Fprintf(out, "%s %s\n  %s\n", frame.Sprint(class), frame.Sprint(f.Method.Name), site.Sprintf("(%s)", f.Callsite))
	}
}

// TestRuntime collects panics instead of printing them.
type TestRuntime struct {
	Panics []*Panic
}

// NewTestRuntime creates an empty test runtime.
func NewTestRuntime() *TestRuntime {
	return &TestRuntime{}
}

func (r *TestRuntime) PrintPanic(p *Panic) {
	r.Panics = append(r.Panics, p)
}
