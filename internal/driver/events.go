package driver

import (
	"context"
	"time"
)

// Stage names a step of Build; the UI draws them in this order.
type Stage string

const (
	StageLoad     Stage = "load"
	StageCache    Stage = "cache" // a hit ends the build here
	StageParse    Stage = "parse"
	StageCheck    Stage = "check"
	StageGenerate Stage = "generate"
	StageRun      Stage = "run"
)

type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	// StatusError: the stage failed or the checkers reported errors.
	StatusError Status = "error"
)

// Event is a progress report. File is the module URI for parse events and
// empty for stages that cover the whole program.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink receives events from Build, ParseAll and Run. Parse events
// come from worker goroutines, so implementations must be safe for
// concurrent use.
type ProgressSink interface {
	OnEvent(Event)
}

// SinkFunc adapts a function to ProgressSink.
type SinkFunc func(Event)

func (f SinkFunc) OnEvent(ev Event) { f(ev) }

// ToChannel sends every event to ch. Once ctx is done events are dropped
// instead of blocking the build.
func ToChannel(ctx context.Context, ch chan<- Event) ProgressSink {
	return SinkFunc(func(ev Event) {
		select {
		case ch <- ev:
		case <-ctx.Done():
		}
	})
}

func emit(sink ProgressSink, ev Event) {
	if sink != nil {
		sink.OnEvent(ev)
	}
}
