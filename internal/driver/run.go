package driver

import (
	"context"
	"time"

	"loa/internal/generation"
	"loa/internal/trace"
	"loa/internal/vm"
)

// RunResult is the value left on the stack by a program.
type RunResult struct {
	// Value is nil when the program left nothing on the stack.
	Value   *vm.Object
	Elapsed time.Duration
}

// Run evaluates a program on a fresh VM. Panics are reported through rt and
// returned as *vm.Panic.
func Run(ctx context.Context, is generation.Instructions, rt vm.Runtime, progress ProgressSink) (*RunResult, error) {
	machine := vm.New(rt).WithTracer(trace.FromContext(ctx))
	return RunOn(ctx, machine, is, progress)
}

// RunOn evaluates a program on an existing VM, as the REPL and loavm do
// when running several programs in sequence.
func RunOn(ctx context.Context, machine *vm.VM, is generation.Instructions, progress ProgressSink) (*RunResult, error) {
	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "eval", 0)
	start := time.Now()
	emit(progress, Event{Stage: StageRun, Status: StatusWorking})

	res := &RunResult{}
	err := machine.Eval(is)
	if err == nil && machine.Len() > 0 {
		res.Value, err = machine.EvalPop()
	}
	res.Elapsed = time.Since(start)
	if err != nil {
		span.End("panic")
		emit(progress, Event{Stage: StageRun, Status: StatusError, Err: err, Elapsed: res.Elapsed})
		return res, err
	}
	span.End("")
	emit(progress, Event{Stage: StageRun, Status: StatusDone, Elapsed: res.Elapsed})
	return res, nil
}
