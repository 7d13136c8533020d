package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"
	"time"
)

// Mode decides when events reach the output.
type Mode uint8

const (
	ModeStream Mode = iota + 1 // каждое событие сразу
	ModeRing                   // последние N событий, выводятся при Close
)

func (m Mode) String() string {
	switch m {
	case ModeStream:
		return "stream"
	case ModeRing:
		return "ring"
	}
	return "unknown"
}

// ParseMode accepts "stream" or "ring".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "stream":
		return ModeStream, nil
	case "ring":
		return ModeRing, nil
	}
	return ModeStream, fmt.Errorf("invalid trace mode %q (expected stream|ring)", s)
}

// Format of written events.
type Format uint8

const (
	FormatText Format = iota
	FormatNDJSON
)

const defaultRingSize = 4096

// Config describes a tracer. OutputPath "-" or "" means stderr; a path
// ending in .ndjson switches to FormatNDJSON.
type Config struct {
	Level      Level
	Mode       Mode
	Output     io.Writer
	OutputPath string
	RingSize   int
}

// New builds the tracer described by cfg. LevelOff gives Nop.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	format := FormatText
	if strings.HasSuffix(cfg.OutputPath, ".ndjson") {
		format = FormatNDJSON
	}
	w, err := openOutput(cfg)
	if err != nil {
		return nil, err
	}
	w0 := &writer{w: w, format: format, start: time.Now(), depth: make(map[uint64]int)}

	switch cfg.Mode {
	case ModeStream, 0:
		return &streamTracer{out: w0, level: cfg.Level}, nil
	case ModeRing:
		size := cfg.RingSize
		if size <= 0 {
			size = defaultRingSize
		}
		return &ringTracer{out: w0, level: cfg.Level, events: make([]Event, size)}, nil
	}
	return nil, fmt.Errorf("unknown trace mode %d", cfg.Mode)
}

func openOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}
	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		return os.Stderr, nil
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("open trace output: %w", err)
	}
	return f, nil
}

// writer renders events. Not safe for concurrent use; tracers lock around it.
type writer struct {
	w      io.Writer
	format Format
	start  time.Time
	depth  map[uint64]int
	err    error
}

type jsonEvent struct {
	Time     string            `json:"time"`
	Seq      uint64            `json:"seq"`
	Kind     string            `json:"kind"`
	Scope    string            `json:"scope"`
	SpanID   uint64            `json:"span_id,omitempty"`
	ParentID uint64            `json:"parent_id,omitempty"`
	Name     string            `json:"name"`
	Detail   string            `json:"detail,omitempty"`
	Micros   int64             `json:"duration_us,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

func (w *writer) write(ev Event) {
	if w.err != nil {
		return
	}
	var line []byte
	switch w.format {
	case FormatNDJSON:
		data, err := json.Marshal(jsonEvent{
			Time:     ev.Time.Format(time.RFC3339Nano),
			Seq:      ev.Seq,
			Kind:     ev.Kind.String(),
			Scope:    ev.Scope.String(),
			SpanID:   ev.SpanID,
			ParentID: ev.ParentID,
			Name:     ev.Name,
			Detail:   ev.Detail,
			Micros:   ev.Duration.Microseconds(),
			Extra:    ev.Extra,
		})
		if err != nil {
			w.err = err
			return
		}
		line = append(data, '\n')
	default:
		line = []byte(w.text(ev))
	}
	// ошибка записи трассы не должна ронять сборку: запоминаем и молчим
	_, w.err = w.w.Write(line)
}

// text renders `[  1.234ms] → name (detail) {k=v}` indented by span depth.
func (w *writer) text(ev Event) string {
	depth := 0
	if ev.ParentID != 0 {
		depth = w.depth[ev.ParentID] + 1
	}
	switch ev.Kind {
	case KindBegin:
		w.depth[ev.SpanID] = depth
	case KindEnd:
		delete(w.depth, ev.SpanID)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%9.3fms] %s", float64(ev.Time.Sub(w.start).Microseconds())/1000, strings.Repeat("  ", depth))
	switch ev.Kind {
	case KindBegin:
		sb.WriteString("→ ")
	case KindEnd:
		sb.WriteString("← ")
	case KindPoint:
		sb.WriteString("• ")
	case KindHeartbeat:
		sb.WriteString("♡ ")
	}
	sb.WriteString(ev.Name)
	if ev.Kind == KindEnd {
		fmt.Fprintf(&sb, " %s", ev.Duration.Round(time.Microsecond))
	}
	if ev.Detail != "" {
		fmt.Fprintf(&sb, " (%s)", ev.Detail)
	}
	if len(ev.Extra) > 0 {
		keys := slices.Sorted(maps.Keys(ev.Extra))
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + ev.Extra[k]
		}
		fmt.Fprintf(&sb, " {%s}", strings.Join(parts, ", "))
	}
	sb.WriteByte('\n')
	return sb.String()
}

func (w *writer) flush() error { return w.err }

func (w *writer) close() error {
	err := w.flush()
	if c, ok := w.w.(io.Closer); ok && w.w != os.Stderr {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

type streamTracer struct {
	mu    sync.Mutex
	out   *writer
	level Level
}

func (t *streamTracer) Emit(ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.out.write(ev)
}

func (t *streamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.out.flush()
}

func (t *streamTracer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.out.close()
}

func (t *streamTracer) Level() Level { return t.level }

// ringTracer keeps the newest len(events) events and writes them on Close:
// enough to see what led up to a VM panic without a huge log.
type ringTracer struct {
	mu     sync.Mutex
	out    *writer
	level  Level
	events []Event
	head   int
	full   bool
}

func (t *ringTracer) Emit(ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events[t.head] = ev
	t.head = (t.head + 1) % len(t.events)
	if t.head == 0 {
		t.full = true
	}
}

// Snapshot returns the kept events, oldest first.
func (t *ringTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.full {
		return slices.Clone(t.events[:t.head])
	}
	return append(slices.Clone(t.events[t.head:]), t.events[:t.head]...)
}

func (t *ringTracer) Flush() error { return nil }

func (t *ringTracer) Close() error {
	events := t.Snapshot()
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, ev := range events {
		t.out.write(ev)
	}
	return t.out.close()
}

func (t *ringTracer) Level() Level { return t.level }
