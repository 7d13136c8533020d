// Package server is the document boundary an editor integration talks to:
// open modules by URI, edits, position conversion, usages and a diagnostics
// sweep that can run in the background. It knows nothing about JSON-RPC.
package server

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"loa/internal/ast"
	"loa/internal/diag"
	"loa/internal/parser"
	"loa/internal/semantics"
	"loa/internal/source"
)

// ErrUnknownDocument is returned for edits of a URI that was never Set.
var ErrUnknownDocument = errors.New("unknown document")

// Position is a zero-based line and UTF-16 character, the way editors count.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a half-open pair of positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Publisher receives the result of a background sweep.
type Publisher func(map[source.URI][]diag.Diagnostic)

type document struct {
	src   *source.Source
	tree  *ast.Tree
	diags []diag.Diagnostic
}

// Server holds the open documents. Every change bumps the version and drops
// the analysis; the next query rebuilds it from all trees.
type Server struct {
	mu       sync.Mutex
	docs     map[source.URI]*document
	version  uint64
	analysis *semantics.Analysis

	maxDiagnostics int
	publish        Publisher

	flight    singleflight.Group
	pending   *sweep
	publishMu sync.Mutex
}

// New creates a server. Library sources (stdlib) are parsed once and are
// part of every analysis, but never published.
func New(library []*source.Source, maxDiagnostics int, publish Publisher) *Server {
	s := &Server{
		docs:           make(map[source.URI]*document),
		maxDiagnostics: maxDiagnostics,
		publish:        publish,
	}
	for _, src := range library {
		s.setLocked(src)
	}
	return s
}

// Set opens src or replaces the document with the same URI.
func (s *Server) Set(src *source.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(src)
}

func (s *Server) setLocked(src *source.Source) {
	tree, diags := parser.ParseSource(src)
	s.docs[src.URI] = &document{src: src, tree: tree, diags: diags}
	s.version++
	s.analysis = nil
}

// Replace swaps the whole text of an open document.
func (s *Server) Replace(uri source.URI, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[uri]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDocument, uri)
	}
	s.setLocked(source.New(doc.src.Kind, uri, text))
	return nil
}

// Change replaces the text covered by span with text. The span's URI names
// the document; the module is re-parsed from scratch afterwards.
func (s *Server) Change(span source.Span, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.docLocked(span.URI())
	if err != nil {
		return err
	}
	s.editLocked(doc, span.Start.Offset, span.End.Offset, text)
	return nil
}

// ChangeRange is Change for editor positions. The positions are resolved
// against the text the edit is applied to.
func (s *Server) ChangeRange(uri source.URI, rng Range, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.docLocked(uri)
	if err != nil {
		return err
	}
	start := locationIn(doc.src, rng.Start)
	end := locationIn(doc.src, rng.End)
	s.editLocked(doc, start.Offset, end.Offset, text)
	return nil
}

func (s *Server) docLocked(uri source.URI) (*document, error) {
	doc, ok := s.docs[uri]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDocument, uri)
	}
	return doc, nil
}

func (s *Server) editLocked(doc *document, start, end int, text string) {
	code := doc.src.Code
	start = clamp(start, 0, len(code))
	end = clamp(end, start, len(code))
	s.setLocked(source.New(doc.src.Kind, doc.src.URI, code[:start]+text+code[end:]))
}

// Close forgets a document.
func (s *Server) Close(uri source.URI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[uri]; ok {
		delete(s.docs, uri)
		s.version++
		s.analysis = nil
	}
}

// Source returns the current text of uri.
func (s *Server) Source(uri source.URI) (*source.Source, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[uri]
	if !ok {
		return nil, false
	}
	return doc.src, true
}

// Documents lists the open module URIs, library sources excluded.
func (s *Server) Documents() []source.URI {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]source.URI, 0, len(s.docs))
	for uri := range s.docs {
		if !uri.IsStdlib() {
			out = append(out, uri)
		}
	}
	slices.Sort(out)
	return out
}

// LocationAt converts an editor position in uri into a Location.
func (s *Server) LocationAt(uri source.URI, pos Position) (source.Location, bool) {
	src, ok := s.Source(uri)
	if !ok {
		return source.Location{}, false
	}
	return locationIn(src, pos), true
}

// SpanToRange converts a span into editor positions.
func SpanToRange(span source.Span) Range {
	return Range{Start: toPosition(span.Start), End: toPosition(span.End)}
}

func toPosition(l source.Location) Position {
	return Position{Line: max(l.Line-1, 0), Character: max(l.Character-1, 0)}
}

func locationIn(src *source.Source, pos Position) source.Location {
	if pos.Line < 0 || pos.Character < 0 {
		return src.LocationAt(0)
	}
	return src.LocationAt(src.OffsetAt(pos.Line+1, pos.Character+1))
}

// snapshot returns the analysis of the current version, building it when
// the documents changed. Callers may use it from any goroutine.
func (s *Server) snapshot() (*semantics.Analysis, map[source.URI][]diag.Diagnostic, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	parsed := make(map[source.URI][]diag.Diagnostic, len(s.docs))
	for uri, doc := range s.docs {
		parsed[uri] = slices.Clone(doc.diags)
	}
	if s.analysis == nil {
		trees := make(map[source.URI]*ast.Tree, len(s.docs))
		for uri, doc := range s.docs {
			trees[uri] = doc.tree
		}
		s.analysis = semantics.NewAnalysis(trees)
	}
	return s.analysis.Clone(), parsed, s.version
}

// Version increases on every change of the document set.
func (s *Server) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// UsageAt finds the declaration and references of whatever is at loc.
func (s *Server) UsageAt(loc source.Location) (*semantics.Usage, bool) {
	a, _, _ := s.snapshot()
	tree := a.Tree(loc.URI)
	if tree == nil {
		return nil, false
	}
	for _, n := range tree.NodesAround(loc) {
		if u, ok := a.FindUsage(n); ok {
			return u, true
		}
	}
	return nil, false
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
