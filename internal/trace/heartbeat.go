package trace

import (
	"strconv"
	"sync"
	"time"
)

// Heartbeat emits a beat every interval. Beats that keep coming with no
// span ending in between mean something is stuck, usually a VM loop.
type Heartbeat struct {
	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// StartHeartbeat returns nil when t is disabled or interval is not positive.
// Beats bypass level filtering.
func StartHeartbeat(t Tracer, interval time.Duration) *Heartbeat {
	if !Enabled(t) || interval <= 0 {
		return nil
	}
	h := &Heartbeat{stop: make(chan struct{})}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for n := 1; ; n++ {
			select {
			case now := <-ticker.C:
				t.Emit(Event{
					Time:   now,
					Seq:    seq.Add(1),
					Kind:   KindHeartbeat,
					Scope:  ScopeDriver,
					Name:   "heartbeat",
					Detail: "#" + strconv.Itoa(n),
				})
			case <-h.stop:
				return
			}
		}
	}()
	return h
}

// Stop ends the heartbeat and waits for its goroutine. Safe on nil.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	h.wg.Wait()
}
