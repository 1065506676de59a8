package series

import (
	"fmt"
	"slices"

	"github.com/zot/seriesdata/internal/accessor"
	"github.com/zot/seriesdata/internal/path"
	"github.com/zot/seriesdata/internal/source"
)

// Handle identifies a registered source. Caches are addressed by handle
// rather than by the source value itself.
type Handle int64

type binding struct {
	src   source.Source
	cache *Cache // nil until the first attach
}

// Registry issues handles for sources and owns their caches. It is created
// by whoever owns the dependents (a chart, a server session); there is no
// package-level registry.
type Registry struct {
	bindings   map[Handle]*binding
	nextHandle int64
	factory    *accessor.Factory
	log        Logger
}

// NewRegistry creates an empty registry. log may be nil.
func NewRegistry(log Logger) *Registry {
	return &Registry{
		bindings:   make(map[Handle]*binding),
		nextHandle: 1,
		factory:    accessor.NewFactory(),
		log:        log,
	}
}

// Register returns the handle of src, issuing a new one the first time
// src is seen.
func (r *Registry) Register(src source.Source) (Handle, error) {
	if src == nil {
		return 0, ErrNilSource
	}
	for h, b := range r.bindings {
		if source.SameItem(b.src, src) {
			return h, nil
		}
	}
	h := Handle(r.nextHandle)
	r.nextHandle++
	r.bindings[h] = &binding{src: src}
	r.logf(3, "series: registered source %d (%T)", h, src)
	return h, nil
}

// Attach binds d to the source of h, creating its cache on first use.
// A dependent whose X path and some Y paths match an up-to-date sibling
// copies the sibling's columns; otherwise a full pass scoped to d runs.
// If the pass fails d is left unattached and h stays registered.
func (r *Registry) Attach(h Handle, d *Dependent) error {
	b, ok := r.bindings[h]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	if d.cache != nil {
		return ErrAlreadyAttached
	}
	if err := path.Validate(true, append([]string{d.XPath}, d.YPaths...)...); err != nil {
		return err
	}
	if b.cache == nil {
		b.cache = newCache(h, b.src, r.factory, r.log)
		r.logf(2, "series: cache created for source %d", h)
	}

	c := b.cache
	sibling := c.shareable(d)
	c.dependents = append(c.dependents, d)
	d.cache = c

	var err error
	if sibling != nil {
		r.logf(3, "series: %q shares columns of %q", d.Name, sibling.Name)
		err = c.share(sibling, d)
	} else {
		err = c.generateForDependent(d)
	}
	if err != nil {
		r.detach(d, true)
		return err
	}
	c.updateSubscriptions()
	d.UpdateArea()
	return nil
}

// Bind registers src and attaches d to it.
func (r *Registry) Bind(src source.Source, d *Dependent) (Handle, error) {
	h, err := r.Register(src)
	if err != nil {
		return 0, err
	}
	return h, r.Attach(h, d)
}

// Rebind moves d to newSrc, detaching it from its current source first.
// Rebinding to the current source does nothing.
func (r *Registry) Rebind(d *Dependent, newSrc source.Source) (Handle, error) {
	if d.cache != nil {
		if source.SameItem(d.cache.src, newSrc) {
			return d.cache.handle, nil
		}
		if err := r.Detach(d); err != nil {
			return 0, err
		}
	}
	return r.Bind(newSrc, d)
}

// Detach unbinds d. Accessors no other dependent uses are dropped; the
// cache and its source subscriptions are destroyed with the last dependent.
func (r *Registry) Detach(d *Dependent) error {
	if d.cache == nil {
		return ErrNotAttached
	}
	r.detach(d, false)
	return nil
}

// detach removes d from its cache and destroys the cache with its last
// dependent. keep leaves the handle registered without a cache.
func (r *Registry) detach(d *Dependent, keep bool) {
	c := d.cache
	c.removeDependent(d)
	if len(c.dependents) > 0 {
		c.updateSubscriptions()
		return
	}
	c.destroy()
	if b, ok := r.bindings[c.handle]; ok && keep {
		b.cache = nil
	} else {
		delete(r.bindings, c.handle)
	}
	r.logf(2, "series: cache for source %d destroyed", c.handle)
}

// Refresh regenerates every dependent of h from the current source content.
func (r *Registry) Refresh(h Handle) error {
	b, ok := r.bindings[h]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	if b.cache == nil {
		return nil
	}
	return b.cache.GenerateList()
}

// Lookup returns the cache of h if it has dependents.
func (r *Registry) Lookup(h Handle) (*Cache, bool) {
	b, ok := r.bindings[h]
	if !ok || b.cache == nil {
		return nil, false
	}
	return b.cache, true
}

// Source returns the source registered under h.
func (r *Registry) Source(h Handle) (source.Source, bool) {
	b, ok := r.bindings[h]
	if !ok {
		return nil, false
	}
	return b.src, true
}

// Caches returns the live caches ordered by handle.
func (r *Registry) Caches() []*Cache {
	var caches []*Cache
	for _, b := range r.bindings {
		if b.cache != nil {
			caches = append(caches, b.cache)
		}
	}
	slices.SortFunc(caches, func(a, b *Cache) int { return int(a.handle - b.handle) })
	return caches
}

func (r *Registry) logf(level int, format string, args ...interface{}) {
	if r.log != nil {
		r.log.Log(level, format, args...)
	}
}

// shareable returns a dependent whose columns d can copy: same X path,
// scalar Y on both sides, at least one common Y path, and columns that
// still match the source.
func (c *Cache) shareable(d *Dependent) *Dependent {
	if d.IsGroupedY {
		return nil
	}
	n := c.src.Len()
	for _, s := range c.dependents {
		if s.XPath != d.XPath || s.IsGroupedY || s.PointsCount != n || n == 0 || !s.consistent() {
			continue
		}
		for _, y := range d.YPaths {
			if slices.Contains(s.YPaths, y) {
				return s
			}
		}
	}
	return nil
}

// share copies s's X columns and common Y columns into d by value and
// computes the remaining Y columns in a pass restricted to them.
func (c *Cache) share(s, d *Dependent) error {
	d.XValueType = s.XValueType
	d.XDoubleValues = slices.Clone(s.XDoubleValues)
	d.XStringValues = slices.Clone(s.XStringValues)
	d.XDateTimeValues = slices.Clone(s.XDateTimeValues)
	d.XIndexedList = slices.Clone(s.XIndexedList)
	d.ActualData = slices.Clone(s.ActualData)
	d.PointsCount = s.PointsCount
	d.IsLinearData = s.IsLinearData

	d.YDoubleValues = make([][]float64, len(d.YPaths))
	var missing []string
	for i, y := range d.YPaths {
		if j := slices.Index(s.YPaths, y); j >= 0 {
			d.YDoubleValues[i] = slices.Clone(s.YDoubleValues[j])
			continue
		}
		missing = append(missing, y)
	}
	if len(missing) == 0 {
		return nil
	}

	cols, n, err := c.buildColumns(missing, nil)
	if err != nil {
		return err
	}
	for i, y := range d.YPaths {
		if d.YDoubleValues[i] != nil {
			continue
		}
		if col := c.findColumn(cols, y, yOrder); col != nil {
			d.YDoubleValues[i] = slices.Clone(col.nums)
		} else {
			d.YDoubleValues[i] = nanColumn(n)
		}
	}
	return nil
}
