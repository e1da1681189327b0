package listing

import (
	"sync"
	"time"
)

// debouncer coalesces rapid triggers into one callback after a quiet window.
// Each trigger within the window resets the timer; only the last callback
// ever fires.
type debouncer struct {
	window time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{window: window}
}

// Trigger schedules fire after the quiet window, cancelling any pending one.
func (d *debouncer) Trigger(fire func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, fire)
}

// Stop cancels any pending callback.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
