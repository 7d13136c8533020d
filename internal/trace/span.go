package trace

import (
	"sync/atomic"
	"time"
)

var (
	seq   atomic.Uint64
	spans atomic.Uint64
)

// Span is an open operation; End closes it. A Span from a disabled tracer
// is inert, so callers never check the level themselves.
type Span struct {
	tracer  Tracer
	id      uint64
	parent  uint64
	scope   Scope
	name    string
	started time.Time
	extra   map[string]string
}

// Begin opens a span under parent (0 for a root span).
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if !Enabled(t) || !t.Level().Allows(scope, name) {
		return &Span{}
	}
	s := &Span{
		tracer:  t,
		id:      spans.Add(1),
		parent:  parent,
		scope:   scope,
		name:    name,
		started: time.Now(),
	}
	t.Emit(Event{
		Time:     s.started,
		Seq:      seq.Add(1),
		Kind:     KindBegin,
		Scope:    scope,
		SpanID:   s.id,
		ParentID: parent,
		Name:     name,
	})
	return s
}

// WithExtra attaches a key to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string)
	}
	s.extra[key] = value
	return s
}

// ID is the span id to pass as parent of nested spans. Inert spans have 0.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// End closes the span and returns how long it was open.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.tracer == nil {
		return 0
	}
	now := time.Now()
	d := now.Sub(s.started)
	s.tracer.Emit(Event{
		Time:     now,
		Seq:      seq.Add(1),
		Kind:     KindEnd,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Name:     s.name,
		Detail:   detail,
		Duration: d,
		Extra:    s.extra,
	})
	return d
}

// Point records something instant: a class registered by the VM, a panic.
func Point(t Tracer, scope Scope, name, detail string, parent uint64) {
	if !Enabled(t) || !t.Level().Allows(scope, name) {
		return
	}
	t.Emit(Event{
		Time:     time.Now(),
		Seq:      seq.Add(1),
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: parent,
		Name:     name,
		Detail:   detail,
	})
}
