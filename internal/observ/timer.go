// Package observ measures the build phases behind `--timings`.
package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase is one finished stage of a build.
type Phase struct {
	Name string        `json:"name"`
	Took time.Duration `json:"took_ns"`
	Note string        `json:"note,omitempty"`
}

// Stop closes a phase started by Timer.Start. The note is formatted like
// fmt.Sprintf; only the first call counts.
type Stop func(format string, args ...any)

// Timer collects phases in the order they were started. Stop functions may
// run on other goroutines.
type Timer struct {
	mu     sync.Mutex
	born   time.Time
	phases []Phase
}

func NewTimer() *Timer { return &Timer{born: time.Now()} }

func (t *Timer) Start(name string) Stop {
	t.mu.Lock()
	slot := len(t.phases)
	t.phases = append(t.phases, Phase{Name: name, Took: -1})
	t.mu.Unlock()

	began := time.Now()
	var once sync.Once
	return func(format string, args ...any) {
		once.Do(func() {
			took := time.Since(began)
			note := format
			if len(args) > 0 {
				note = fmt.Sprintf(format, args...)
			}
			t.mu.Lock()
			t.phases[slot].Took = took
			t.phases[slot].Note = note
			t.mu.Unlock()
		})
	}
}

// Report snapshots finished phases. A phase still open is left out.
func (t *Timer) Report() Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := Report{Wall: time.Since(t.born)}
	for _, p := range t.phases {
		if p.Took >= 0 {
			r.Phases = append(r.Phases, p)
		}
	}
	return r
}

// Report is a finished timing table. Wall covers the whole build, so it
// may exceed Sum when work ran between phases.
type Report struct {
	Wall   time.Duration `json:"wall_ns"`
	Phases []Phase       `json:"phases"`
}

func (r Report) Sum() time.Duration {
	var sum time.Duration
	for _, p := range r.Phases {
		sum += p.Took
	}
	return sum
}

func (r Report) Lookup(name string) (Phase, bool) {
	for _, p := range r.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return Phase{}, false
}

func ms(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }

// Summary рисует таблицу для --timings: фаза, миллисекунды, доля от суммы.
// Пустой отчёт даёт пустую строку.
func (r Report) Summary() string {
	if len(r.Phases) == 0 {
		return ""
	}
	sum := r.Sum()
	var b strings.Builder
	b.WriteString("timings:\n")
	for _, p := range r.Phases {
		share := 0.0
		if sum > 0 {
			share = 100 * float64(p.Took) / float64(sum)
		}
		fmt.Fprintf(&b, "  %-12s %8.2f ms %5.1f%%", p.Name, ms(p.Took), share)
		if p.Note != "" {
			b.WriteString("  // " + p.Note)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "  %-12s %8.2f ms\n", "total", ms(sum))
	return b.String()
}
