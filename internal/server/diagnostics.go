package server

import (
	"context"
	"strconv"
	"sync/atomic"

	"loa/internal/diag"
	"loa/internal/semantics"
	"loa/internal/semantics/checkers"
	"loa/internal/source"
	"loa/internal/trace"
)

// sweep is one background republish. Setting stale drops its result.
type sweep struct {
	stale atomic.Bool
	done  chan struct{}
}

// Diagnostics runs parse and checker diagnostics over a snapshot of the
// documents. Every open module gets an entry, possibly empty, so a client
// can clear what it showed before. Library modules are left out.
func (s *Server) Diagnostics(ctx context.Context) (map[source.URI][]diag.Diagnostic, error) {
	a, parsed, _ := s.snapshot()
	return s.collect(ctx, a, parsed)
}

func (s *Server) collect(ctx context.Context, a *semantics.Analysis, parsed map[source.URI][]diag.Diagnostic) (map[source.URI][]diag.Diagnostic, error) {
	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "diagnostics_sweep", 0)
	defer span.End("")

	bag := diag.NewBag(s.maxDiagnostics)
	for _, items := range parsed {
		bag.AddAll(items)
	}
	r := diag.BagReporter{Bag: bag}
	for _, c := range checkers.All() {
		// отмена проверяется между чекерами, не внутри
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		checkers.Run(a, r, c)
	}
	bag.Sort()

	out := make(map[source.URI][]diag.Diagnostic, len(parsed))
	for uri := range parsed {
		if !uri.IsStdlib() {
			out[uri] = []diag.Diagnostic{}
		}
	}
	for _, d := range bag.Items() {
		uri := d.Primary.URI()
		if _, ok := out[uri]; ok {
			out[uri] = append(out[uri], d)
		}
	}
	return out, nil
}

// Republish starts a diagnostics sweep on a goroutine and hands the result
// to the Publisher. A newer Republish marks the running one stale; a stale
// result is never published. Concurrent sweeps of the same version share
// one computation. The returned channel closes when the sweep finishes,
// published or not.
func (s *Server) Republish(ctx context.Context) <-chan struct{} {
	a, parsed, version := s.snapshot()
	sw := &sweep{done: make(chan struct{})}

	s.mu.Lock()
	if s.pending != nil {
		s.pending.stale.Store(true)
	}
	s.pending = sw
	s.mu.Unlock()

	go func() {
		defer close(sw.done)
		v, err, _ := s.flight.Do(strconv.FormatUint(version, 10), func() (any, error) {
			return s.collect(ctx, a, parsed)
		})
		if err != nil || s.publish == nil {
			return
		}
		// публикации идут по одной: более новый sweep всегда публикует последним
		s.publishMu.Lock()
		defer s.publishMu.Unlock()
		if sw.stale.Load() {
			return
		}
		s.publish(v.(map[source.URI][]diag.Diagnostic))
	}()
	return sw.done
}
