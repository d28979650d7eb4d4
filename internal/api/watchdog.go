package api

import (
	"sync"
	"sync/atomic"
	"time"
)

// slowStage is one rung of the still-working warning ladder.
type slowStage struct {
	after   time.Duration
	message string
}

// slowStages are the escalating warnings shown while the router works.
// They are advisory; only the hard deadline aborts the exchange.
var slowStages = []slowStage{
	{30 * time.Second, "Still working - the agents are consulting on your design."},
	{90 * time.Second, "Still working - complex designs can take a couple of minutes."},
	{180 * time.Second, "Still working - this is taking longer than usual. Hold tight."},
}

// watchdog runs the warning ladder and the hard abort for one exchange as
// a single schedule keyed by deadline, so there is exactly one goroutine
// to tear down on every exit path.
type watchdog struct {
	onSlow func(elapsed time.Duration, message string)

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	expired  atomic.Bool

	mu    sync.Mutex
	abort func()
}

// newWatchdog starts the schedule. hard is the abort deadline; onSlow
// receives each warning stage that fires before it.
func newWatchdog(hard time.Duration, onSlow func(elapsed time.Duration, message string)) *watchdog {
	w := &watchdog{
		onSlow: onSlow,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go w.run(hard)
	return w
}

func (w *watchdog) run(hard time.Duration) {
	defer close(w.done)

	start := time.Now()
	for _, stage := range slowStages {
		if stage.after >= hard {
			continue
		}
		select {
		case <-w.stop:
			return
		case <-time.After(time.Until(start.Add(stage.after))):
			if w.onSlow != nil {
				w.onSlow(stage.after, stage.message)
			}
		}
	}

	select {
	case <-w.stop:
		return
	case <-time.After(time.Until(start.Add(hard))):
		w.expired.Store(true)
		w.mu.Lock()
		abort := w.abort
		w.mu.Unlock()
		if abort != nil {
			abort()
		}
	}
}

// SetAbort registers the function the hard deadline calls to break the
// in-flight read. If the deadline has already fired, abort runs now.
func (w *watchdog) SetAbort(abort func()) {
	w.mu.Lock()
	w.abort = abort
	expired := w.expired.Load()
	w.mu.Unlock()
	if expired && abort != nil {
		abort()
	}
}

// Expired reports whether the hard deadline fired.
func (w *watchdog) Expired() bool {
	return w.expired.Load()
}

// Stop cancels the schedule. Safe to call multiple times and after expiry.
func (w *watchdog) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}
