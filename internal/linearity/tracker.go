// Package linearity tracks whether the X values observed for a path arrive
// in non-decreasing order, so downstream lookups can binary search.
package linearity

import "math"

// State is the tracked order of one path.
type State struct {
	Ascending bool
	Last      float64
}

// Tracker holds one State per path. The ascending flag only ever latches
// from true to false; a Reset starts the path over.
type Tracker struct {
	states map[string]*State
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{states: make(map[string]*State)}
}

// Reset reinitializes path before a full pass.
func (t *Tracker) Reset(path string) {
	t.states[path] = &State{Ascending: true, Last: math.NaN()}
}

// Observe records the next value for path, comparing it against the last
// value observed for the path.
func (t *Tracker) Observe(path string, v float64) {
	t.ObserveAfter(path, math.NaN(), v)
}

// ObserveAfter records a value inserted behind prev. A NaN prev (insertion
// at the front, or no numeric predecessor) compares against the last
// observed value instead.
func (t *Tracker) ObserveAfter(path string, prev, v float64) {
	t.ObserveBetween(path, prev, math.NaN(), v)
}

// ObserveBetween records a value placed between prev and next. A value
// greater than a numeric next also clears the ascending flag.
func (t *Tracker) ObserveBetween(path string, prev, next, v float64) {
	s, ok := t.states[path]
	if !ok {
		s = &State{Ascending: true, Last: math.NaN()}
		t.states[path] = s
	}
	base := s.Last
	if !math.IsNaN(prev) {
		base = prev
	}
	if s.Ascending && (v < base || v > next) {
		s.Ascending = false
	}
	s.Last = v
}

// IsLinear reports the ascending flag of path. Unknown paths are linear.
func (t *Tracker) IsLinear(path string) bool {
	s, ok := t.states[path]
	if !ok {
		return true
	}
	return s.Ascending
}

// Get returns a copy of the state of path.
func (t *Tracker) Get(path string) (State, bool) {
	s, ok := t.states[path]
	if !ok {
		return State{}, false
	}
	return *s, true
}

// Forget drops the state of path.
func (t *Tracker) Forget(path string) {
	delete(t.states, path)
}

// Clear drops every state.
func (t *Tracker) Clear() {
	t.states = make(map[string]*State)
}
