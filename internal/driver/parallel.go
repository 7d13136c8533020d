package driver

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"loa/internal/ast"
	"loa/internal/diag"
	"loa/internal/lexer"
	"loa/internal/parser"
	"loa/internal/source"
	"loa/internal/token"
	"loa/internal/trace"
)

// ParsedSource is the result of parsing one source.
type ParsedSource struct {
	Source      *source.Source
	Tree        *ast.Tree
	Diagnostics []diag.Diagnostic
}

// ParseAll парсит источники параллельно. Результаты идут в порядке srcs.
// jobs <= 0 means GOMAXPROCS workers.
func ParseAll(ctx context.Context, srcs []*source.Source, jobs int, sink ProgressSink) ([]ParsedSource, error) {
	if len(srcs) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	tracer := trace.FromContext(ctx)

	// индексы уникальны для каждой горутины, мьютекс не нужен
	results := make([]ParsedSource, len(srcs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(srcs)))
	for i, src := range srcs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			file := src.URI.String()
			emit(sink, Event{File: file, Stage: StageParse, Status: StatusWorking})
			span := trace.Begin(tracer, trace.ScopeModule, "parse_module", 0).WithExtra("uri", file)
			start := time.Now()

			tree, diags := parser.ParseSource(src)
			results[i] = ParsedSource{Source: src, Tree: tree, Diagnostics: diags}

			status := StatusDone
			if diag.HasErrors(diags) {
				status = StatusError
			}
			span.End(string(status))
			emit(sink, Event{File: file, Stage: StageParse, Status: status, Elapsed: time.Since(start)})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// TokenizeResult holds the tokens of one source.
type TokenizeResult struct {
	Source *source.Source
	Tokens []token.Token
}

// Tokenize лексирует один исходник без разбора.
func Tokenize(src *source.Source) *TokenizeResult {
	return &TokenizeResult{Source: src, Tokens: lexer.Tokenize(src)}
}

// Parse разбирает один исходник; ошибки синтаксиса возвращаются диагностиками.
func Parse(src *source.Source) *ParsedSource {
	tree, diags := parser.ParseSource(src)
	return &ParsedSource{Source: src, Tree: tree, Diagnostics: diags}
}
