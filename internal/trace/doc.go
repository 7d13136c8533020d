// Package trace records what the Loa toolchain is doing: which pipeline
// stage runs, how long each module takes to parse, which classes the VM
// registers and where it panicked.
//
//	loa run --trace=- --trace-level=detail
//	loa build --trace=build.ndjson --trace-mode=ring
//
// LevelPhase records driver and pass spans (build, parse, check, generate,
// eval). LevelDetail adds module spans and VM class points. LevelError keeps
// only panics and cache failures.
//
// The tracer travels in the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "parse", 0)
//	defer span.End("")
package trace
