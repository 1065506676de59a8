package protocol

import (
	"slices"
	"sync"
)

// Watches tracks which connections watch which series.
type Watches struct {
	watchers map[string][]string // series name -> connection IDs
	mu       sync.RWMutex

	// OnActiveChanged is called with true when a series gains its first
	// watcher and with false when it loses its last one.
	OnActiveChanged func(series string, active bool)
}

// NewWatches creates an empty watch table.
func NewWatches() *Watches {
	return &Watches{watchers: make(map[string][]string)}
}

// Watch adds connectionID as a watcher of series. Returns false if it already was one.
func (w *Watches) Watch(series, connectionID string) bool {
	w.mu.Lock()
	conns := w.watchers[series]
	if slices.Contains(conns, connectionID) {
		w.mu.Unlock()
		return false
	}
	w.watchers[series] = append(conns, connectionID)
	first := len(conns) == 0
	w.mu.Unlock()

	if first && w.OnActiveChanged != nil {
		w.OnActiveChanged(series, true)
	}
	return true
}

// Unwatch removes connectionID from the watchers of series.
func (w *Watches) Unwatch(series, connectionID string) bool {
	w.mu.Lock()
	conns := w.watchers[series]
	i := slices.Index(conns, connectionID)
	if i < 0 {
		w.mu.Unlock()
		return false
	}
	conns = slices.Delete(conns, i, i+1)
	last := len(conns) == 0
	if last {
		delete(w.watchers, series)
	} else {
		w.watchers[series] = conns
	}
	w.mu.Unlock()

	if last && w.OnActiveChanged != nil {
		w.OnActiveChanged(series, false)
	}
	return true
}

// UnwatchAll removes connectionID from every series, for disconnects.
func (w *Watches) UnwatchAll(connectionID string) {
	for _, s := range w.Watched(connectionID) {
		w.Unwatch(s, connectionID)
	}
}

// Watchers returns the connections watching series.
func (w *Watches) Watchers(series string) []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.watchers[series])
}

// Watched returns the sorted series watched by connectionID.
func (w *Watches) Watched(connectionID string) []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []string
	for s, conns := range w.watchers {
		if slices.Contains(conns, connectionID) {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return out
}
