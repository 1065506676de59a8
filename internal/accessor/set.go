package accessor

import (
	"sort"

	"github.com/zot/seriesdata/internal/value"
)

// Set holds the accessors of one cache: at most one per path, also indexed by kind.
type Set struct {
	byPath map[string]*Accessor
	byKind map[value.Kind]map[string]*Accessor
}

// NewSet creates an empty accessor set.
func NewSet() *Set {
	return &Set{
		byPath: make(map[string]*Accessor),
		byKind: make(map[value.Kind]map[string]*Accessor),
	}
}

// GetOrCreate returns the accessor for path, compiling it from sample on first use.
// Returns false when the path is absent from sample; the path is then ignored.
func (s *Set) GetOrCreate(f *Factory, path string, sample interface{}) (*Accessor, bool) {
	if a, ok := s.byPath[path]; ok {
		return a, true
	}
	a, ok := f.Compile(sample, path)
	if !ok {
		return nil, false
	}
	s.byPath[path] = a
	kinds := s.byKind[a.Kind]
	if kinds == nil {
		kinds = make(map[string]*Accessor)
		s.byKind[a.Kind] = kinds
	}
	kinds[path] = a
	return a, true
}

// Lookup returns the accessor for path if one exists.
func (s *Set) Lookup(path string) (*Accessor, bool) {
	a, ok := s.byPath[path]
	return a, ok
}

// Find searches the kind partitions in order and returns the first accessor
// registered for path.
func (s *Set) Find(path string, order ...value.Kind) (*Accessor, bool) {
	for _, k := range order {
		if a, ok := s.byKind[k][path]; ok {
			return a, true
		}
	}
	return nil, false
}

// Remove drops the accessor for path.
func (s *Set) Remove(path string) {
	a, ok := s.byPath[path]
	if !ok {
		return
	}
	delete(s.byPath, path)
	delete(s.byKind[a.Kind], path)
	if len(s.byKind[a.Kind]) == 0 {
		delete(s.byKind, a.Kind)
	}
}

// Paths returns the sorted paths registered under kind.
func (s *Set) Paths(kind value.Kind) []string {
	paths := make([]string, 0, len(s.byKind[kind]))
	for p := range s.byKind[kind] {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of accessors.
func (s *Set) Len() int {
	return len(s.byPath)
}

// Clear removes every accessor.
func (s *Set) Clear() {
	s.byPath = make(map[string]*Accessor)
	s.byKind = make(map[value.Kind]map[string]*Accessor)
}
