package protocol

import (
	"sync"
	"time"
)

// AreaBatcher coalesces area-changed notifications per series. A series
// marked several times between flushes is flushed once, in the order it was
// first marked.
type AreaBatcher struct {
	mu       sync.Mutex
	pending  map[string]struct{}
	order    []string
	timer    *time.Timer
	interval time.Duration
	flush    func(names []string)
	batches  int
}

// NewAreaBatcher creates a batcher that hands pending series names to flush
// interval after the first mark. flush runs on a timer goroutine.
func NewAreaBatcher(interval time.Duration, flush func(names []string)) *AreaBatcher {
	return &AreaBatcher{
		pending:  make(map[string]struct{}),
		interval: interval,
		flush:    flush,
	}
}

// Mark queues name and starts the debounce timer if it is not running.
func (b *AreaBatcher) Mark(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.pending[name]; !ok {
		b.pending[name] = struct{}{}
		b.order = append(b.order, name)
	}
	if b.timer == nil {
		b.timer = time.AfterFunc(b.interval, b.run)
	}
}

// FlushNow stops the timer and flushes synchronously.
func (b *AreaBatcher) FlushNow() {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
	}
	b.mu.Unlock()
	b.run()
}

func (b *AreaBatcher) run() {
	b.mu.Lock()
	b.timer = nil
	names := b.order
	b.order = nil
	b.pending = make(map[string]struct{})
	if len(names) > 0 {
		b.batches++
	}
	b.mu.Unlock()

	if len(names) > 0 {
		b.flush(names)
	}
}

// Clear drops pending names and stops the timer.
func (b *AreaBatcher) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = nil
	b.order = nil
	b.pending = make(map[string]struct{})
}

// PendingCount returns the number of pending series (for testing).
func (b *AreaBatcher) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}

// Batches returns the number of non-empty flushes so far.
func (b *AreaBatcher) Batches() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.batches
}
