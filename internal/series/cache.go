package series

import (
	"github.com/zot/seriesdata/internal/accessor"
	"github.com/zot/seriesdata/internal/linearity"
	"github.com/zot/seriesdata/internal/source"
)

// Logger receives verbosity-gated diagnostics. *config.Config satisfies it.
type Logger interface {
	Log(level int, format string, args ...interface{})
}

// Cache holds the accessors, linearity state and dependents of one source.
// It exists from the first attach until the last detach.
type Cache struct {
	handle     Handle
	src        source.Source
	factory    *accessor.Factory
	accessors  *accessor.Set
	linearity  *linearity.Tracker
	dependents []*Dependent
	log        Logger

	cancelChanges func()
	cancelItems   func()
}

func newCache(h Handle, src source.Source, f *accessor.Factory, log Logger) *Cache {
	return &Cache{
		handle:    h,
		src:       src,
		factory:   f,
		accessors: accessor.NewSet(),
		linearity: linearity.New(),
		log:       log,
	}
}

// Handle returns the handle of the cache's source.
func (c *Cache) Handle() Handle {
	return c.handle
}

// Source returns the source the cache reads.
func (c *Cache) Source() source.Source {
	return c.src
}

// Dependents returns the attached dependents in attach order.
func (c *Cache) Dependents() []*Dependent {
	return append([]*Dependent(nil), c.dependents...)
}

// AccessorCount returns the number of compiled accessors.
func (c *Cache) AccessorCount() int {
	return c.accessors.Len()
}

// HasAccessor reports whether an accessor exists for path.
func (c *Cache) HasAccessor(path string) bool {
	_, ok := c.accessors.Lookup(path)
	return ok
}

// IsLinear reports the latched linearity of an X path.
func (c *Cache) IsLinear(path string) bool {
	return c.linearity.IsLinear(path)
}

func (c *Cache) logf(level int, format string, args ...interface{}) {
	if c.log != nil {
		c.log.Log(level, format, args...)
	}
}

// updateSubscriptions subscribes to structural changes while dependents exist
// and to item changes while at least one dependent listens for them.
func (c *Cache) updateSubscriptions() {
	if len(c.dependents) > 0 && c.cancelChanges == nil {
		if n, ok := c.src.(source.ChangeNotifier); ok {
			c.cancelChanges = n.SubscribeChanges(c.HandleChange)
		}
	}

	listen := false
	for _, d := range c.dependents {
		if d.ListenPropertyChange {
			listen = true
			break
		}
	}
	switch {
	case listen && c.cancelItems == nil:
		if n, ok := c.src.(source.ItemChangeNotifier); ok {
			c.cancelItems = n.SubscribeItemChanges(c.HandleItemChange)
		}
	case !listen && c.cancelItems != nil:
		c.cancelItems()
		c.cancelItems = nil
	}
}

// destroy releases the subscriptions and all cached state.
func (c *Cache) destroy() {
	if c.cancelChanges != nil {
		c.cancelChanges()
		c.cancelChanges = nil
	}
	if c.cancelItems != nil {
		c.cancelItems()
		c.cancelItems = nil
	}
	c.accessors.Clear()
	c.linearity.Clear()
	c.dependents = nil
}

// removeDependent drops d and the accessors no other dependent uses.
func (c *Cache) removeDependent(d *Dependent) {
	for i, dep := range c.dependents {
		if dep == d {
			c.dependents = append(c.dependents[:i], c.dependents[i+1:]...)
			break
		}
	}
	for _, p := range d.paths() {
		if c.pathInUse(p) {
			continue
		}
		c.accessors.Remove(p)
		c.linearity.Forget(p)
	}
	d.cache = nil
}

func (c *Cache) pathInUse(p string) bool {
	for _, d := range c.dependents {
		if d.usesPath(p) {
			return true
		}
	}
	return false
}
