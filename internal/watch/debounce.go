package watch

import (
	"sync"
	"time"
)

// Debouncer batches changes that arrive in quick succession and flushes them once
// the stream goes quiet.
type Debouncer struct {
	mu            sync.Mutex
	pending       []Change
	timer         *time.Timer
	onFlush       func([]Change)
	delay         time.Duration
	manifestDelay time.Duration
	stopped       bool
}

// NewDebouncer creates a debouncer that calls onFlush with each batch.
func NewDebouncer(onFlush func([]Change)) *Debouncer {
	return &Debouncer{
		onFlush:       onFlush,
		delay:         DefaultDelay,
		manifestDelay: ManifestDelay,
	}
}

// SetDelay changes the quiet periods for ordinary changes and manifest changes.
func (d *Debouncer) SetDelay(delay, manifestDelay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delay = delay
	d.manifestDelay = manifestDelay
}

// Add queues a change and restarts the quiet period.
func (d *Debouncer) Add(c Change) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = append(d.pending, c)
	if d.timer != nil {
		d.timer.Stop()
	}

	delay := d.delay
	for _, p := range d.pending {
		if p.Category == CategoryManifest && d.manifestDelay > delay {
			delay = d.manifestDelay
			break
		}
	}
	d.timer = time.AfterFunc(delay, d.flush)
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	batch := d.pending
	d.pending = nil
	stopped := d.stopped
	d.mu.Unlock()

	if !stopped && len(batch) > 0 && d.onFlush != nil {
		d.onFlush(batch)
	}
}

// Stop drops pending changes. Later Adds are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
	}
}
