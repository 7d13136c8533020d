package driver

import (
	"context"
	"errors"
	"time"

	"loa/internal/ast"
	"loa/internal/diag"
	"loa/internal/generation"
	"loa/internal/observ"
	"loa/internal/project"
	"loa/internal/semantics"
	"loa/internal/semantics/checkers"
	"loa/internal/source"
	"loa/internal/trace"
)

// ErrDiagnostics is returned by Build when the program has Error
// diagnostics and therefore no instructions.
var ErrDiagnostics = errors.New("diagnostics reported errors")

// Options configures one compilation.
type Options struct {
	MaxDiagnostics int
	// Jobs bounds the parse workers; 0 means GOMAXPROCS.
	Jobs int
	// CheckOnly stops after the checkers.
	CheckOnly bool
	Cache     *Store
	Progress  ProgressSink
	// Directives receives REPL `:t`/`:b` answers during generation.
	Directives generation.Directives
}

// OptionsFor copies the limits of a project configuration.
func OptionsFor(cfg project.Config) Options {
	return Options{MaxDiagnostics: cfg.MaxDiagnostics}
}

// Result is everything one compilation produced.
type Result struct {
	Sources map[source.URI]*source.Source
	// Analysis is nil when the program came from the cache.
	Analysis *semantics.Analysis
	// Diagnostics are sorted and capped at MaxDiagnostics.
	Diagnostics  []diag.Diagnostic
	Instructions generation.Instructions
	Key          project.Digest
	CacheHit     bool
	Timings      observ.Report
}

// HasErrors reports whether any Error diagnostic was produced.
func (r *Result) HasErrors() bool {
	return r != nil && diag.HasErrors(r.Diagnostics)
}

// Build compiles srcs: parse, analyse, check, and (when nothing failed)
// generate. With a cache, a program whose sources hash to a known key skips
// straight to the cached bytecode.
//
// A program with Error diagnostics yields the Result together with
// ErrDiagnostics; generation failures are returned as *generation.Error.
func Build(ctx context.Context, srcs []*source.Source, opts Options) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	tracer := trace.FromContext(ctx)
	root := trace.Begin(tracer, trace.ScopeDriver, "build", 0)
	defer root.End("")

	timer := observ.NewTimer()
	res := &Result{Sources: make(map[source.URI]*source.Source, len(srcs))}
	defer func() { res.Timings = timer.Report() }()
	for _, src := range srcs {
		res.Sources[src.URI] = src
		emit(opts.Progress, Event{File: src.URI.String(), Stage: StageLoad, Status: StatusQueued})
	}

	if opts.Cache != nil && !opts.CheckOnly {
		stop := timer.Start("cache")
		span := trace.Begin(tracer, trace.ScopePass, "cache", root.ID())
		res.Key = Fingerprint(srcs)
		hit := lookup(opts.Cache, res)
		stop("%s", cacheNote(hit))
		span.End(cacheNote(hit))
		if hit {
			emit(opts.Progress, Event{Stage: StageCache, Status: StatusDone})
			return res, nil
		}
	}

	stop := timer.Start("parse")
	span := trace.Begin(tracer, trace.ScopePass, "parse", root.ID())
	parsed, err := ParseAll(ctx, srcs, opts.Jobs, opts.Progress)
	stop("%d sources", len(srcs))
	span.End("")
	if err != nil {
		return res, err
	}

	bag := diag.NewBag(opts.MaxDiagnostics)
	trees := make(map[source.URI]*ast.Tree, len(parsed))
	for _, p := range parsed {
		bag.AddAll(p.Diagnostics)
		trees[p.Source.URI] = p.Tree
	}

	stop = timer.Start("check")
	span = trace.Begin(tracer, trace.ScopePass, "check", root.ID())
	emit(opts.Progress, Event{Stage: StageCheck, Status: StatusWorking})
	res.Analysis = semantics.NewAnalysis(trees)
	bag.AddAll(checkers.Check(res.Analysis))
	bag.Sort()
	res.Diagnostics = bag.Items()
	stop("%d diagnostics", len(res.Diagnostics))
	span.End("")

	if res.HasErrors() {
		emit(opts.Progress, Event{Stage: StageCheck, Status: StatusError, Err: ErrDiagnostics})
		return res, ErrDiagnostics
	}
	emit(opts.Progress, Event{Stage: StageCheck, Status: StatusDone})
	if opts.CheckOnly {
		return res, nil
	}

	stop = timer.Start("generate")
	span = trace.Begin(tracer, trace.ScopePass, "generate", root.ID())
	start := time.Now()
	emit(opts.Progress, Event{Stage: StageGenerate, Status: StatusWorking})
	res.Instructions, err = generation.New(res.Analysis).WithDirectives(opts.Directives).GenerateAll()
	stop("%d instructions", len(res.Instructions))
	span.End("")
	if err != nil {
		emit(opts.Progress, Event{Stage: StageGenerate, Status: StatusError, Err: err})
		return res, err
	}
	emit(opts.Progress, Event{Stage: StageGenerate, Status: StatusDone, Elapsed: time.Since(start)})

	if opts.Cache != nil {
		if err := opts.Cache.Save(res.Key, res.Instructions, res.Diagnostics); err != nil {
			// кэш не обязателен: ошибка записи не ломает сборку
			trace.Point(tracer, trace.ScopePass, "cache_put_failed", err.Error(), root.ID())
		}
	}
	return res, nil
}

// битая запись считается промахом, её перезапишет Save
func lookup(cache *Store, res *Result) bool {
	is, warnings, hit, err := cache.Load(res.Key)
	if err != nil || !hit {
		return false
	}
	res.Instructions = is
	res.Diagnostics = warnings
	res.CacheHit = true
	return true
}

func cacheNote(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
