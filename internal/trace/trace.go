package trace

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Level controls how much is recorded.
type Level uint8

const (
	LevelOff    Level = iota
	LevelError        // только паники VM и сбои кэша
	LevelPhase        // build, parse, check, generate, eval
	LevelDetail       // + модули и классы VM
	LevelDebug        // всё
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel accepts the names printed by Level.String, in any case.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level %q (expected off|error|phase|detail|debug)", s)
}

// Scope is the granularity of an event; smaller is coarser.
type Scope uint8

const (
	ScopeDriver Scope = iota + 1 // one whole command
	ScopePass                    // a pipeline stage
	ScopeModule                  // one module or one VM class
	ScopeNode
)

func (s Scope) String() string {
	switch s {
	case ScopeDriver:
		return "driver"
	case ScopePass:
		return "pass"
	case ScopeModule:
		return "module"
	case ScopeNode:
		return "node"
	}
	return "unknown"
}

// Allows reports whether events of scope are recorded at level l.
// Points named in errorPoints pass at LevelError as well.
func (l Level) Allows(scope Scope, name string) bool {
	switch l {
	case LevelOff:
		return false
	case LevelError:
		return errorPoints[name]
	case LevelPhase:
		return scope <= ScopePass
	case LevelDetail:
		return scope <= ScopeModule
	}
	return true
}

var errorPoints = map[string]bool{
	"panic":            true,
	"cache_put_failed": true,
}

// Kind of an event.
type Kind uint8

const (
	KindBegin Kind = iota + 1
	KindEnd
	KindPoint
	KindHeartbeat
)

func (k Kind) String() string {
	switch k {
	case KindBegin:
		return "begin"
	case KindEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindHeartbeat:
		return "heartbeat"
	}
	return "unknown"
}

// Event is one record. Duration is set on KindEnd only.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64
	Name     string
	Detail   string
	Duration time.Duration
	Extra    map[string]string
}

// Tracer receives events. Emit must be safe for concurrent use: the driver
// parses modules in parallel.
type Tracer interface {
	Emit(ev Event)
	Flush() error
	Close() error
	Level() Level
}

// Enabled reports whether t records anything at all.
func Enabled(t Tracer) bool {
	return t != nil && t.Level() > LevelOff
}

type nopTracer struct{}

func (nopTracer) Emit(Event)   {}
func (nopTracer) Flush() error { return nil }
func (nopTracer) Close() error { return nil }
func (nopTracer) Level() Level { return LevelOff }

// Nop records nothing. FromContext returns it when no tracer is attached.
var Nop Tracer = nopTracer{}

type ctxKey struct{}

// WithTracer attaches t to ctx.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, t)
}

// FromContext returns the tracer attached to ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(ctxKey{}).(Tracer); ok {
		return t
	}
	return Nop
}
