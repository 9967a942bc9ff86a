// Package debounce coalesces bursts of calls into a single delayed call per key.
package debounce

import (
	"sync"
	"time"
)

// call is the submission waiting on a key. gen identifies it, so a timer that
// fires after being superseded can tell it is stale.
type call struct {
	timer *time.Timer
	gen   uint64
	fn    func()
}

// Debouncer runs the last function submitted for a key once the key has been
// quiet for the configured delay. Each new submission resets the key's timer.
type Debouncer struct {
	delay   time.Duration
	mu      sync.Mutex
	calls   map[string]*call
	gen     uint64
	stopped bool
	wg      sync.WaitGroup
}

// New creates a Debouncer with the given quiet period.
func New(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay: delay,
		calls: make(map[string]*call),
	}
}

// Trigger schedules fn for key, replacing any call still waiting for that key.
func (d *Debouncer) Trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if prev, ok := d.calls[key]; ok && prev.timer.Stop() {
		// The stopped timer will never fire, so its Add must be undone.
		d.wg.Done()
	}

	d.gen++
	gen := d.gen
	c := &call{gen: gen, fn: fn}
	d.calls[key] = c
	d.wg.Add(1)
	c.timer = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.fire(key, gen)
	})
}

func (d *Debouncer) fire(key string, gen uint64) {
	d.mu.Lock()
	c, ok := d.calls[key]
	if !ok || c.gen != gen {
		// Cancelled, or superseded by a later Trigger while this timer fired.
		d.mu.Unlock()
		return
	}
	delete(d.calls, key)
	d.mu.Unlock()

	if c.fn != nil {
		c.fn()
	}
}

// Cancel drops the pending call for key, if any.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if c, ok := d.calls[key]; ok {
		if c.timer.Stop() {
			d.wg.Done()
		}
		delete(d.calls, key)
	}
}

// Pending reports how many keys are waiting to fire.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

// StopAndWait stops accepting new calls and waits up to timeout for calls
// that are already running. Calls still waiting on their timer are dropped.
// It reports whether everything finished in time.
func (d *Debouncer) StopAndWait(timeout time.Duration) bool {
	d.mu.Lock()
	d.stopped = true
	for key, c := range d.calls {
		if c.timer.Stop() {
			d.wg.Done()
		}
		delete(d.calls, key)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
