package search

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of calls per key into one deferred run. Used
// for keystroke-triggered searches so only the final state of a burst
// reaches the network.
type Debouncer struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	wait   time.Duration
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(wait time.Duration) *Debouncer {
	return &Debouncer{
		timers: make(map[string]*time.Timer),
		wait:   wait,
	}
}

// Debounce schedules fn after the quiet period; a newer call with the
// same key replaces a pending one.
func (d *Debouncer) Debounce(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if timer, ok := d.timers[key]; ok {
		timer.Stop()
	}
	d.timers[key] = time.AfterFunc(d.wait, func() {
		d.mu.Lock()
		delete(d.timers, key)
		d.mu.Unlock()
		fn()
	})
}

// Cancel drops a pending run for one key.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if timer, ok := d.timers[key]; ok {
		timer.Stop()
		delete(d.timers, key)
	}
}

// Clear cancels every pending run. Must be called on teardown so no timer
// outlives its owner.
func (d *Debouncer) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, timer := range d.timers {
		timer.Stop()
		delete(d.timers, key)
	}
}
