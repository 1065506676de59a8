package series

import (
	"fmt"
	"math"
	"time"

	"github.com/zot/seriesdata/internal/accessor"
	"github.com/zot/seriesdata/internal/value"
)

// Kind search orders used to select a path's accessor.
var (
	xOrder = []value.Kind{
		value.KindDouble, value.KindDateTime, value.KindInt, value.KindFloat, value.KindLong,
		value.KindObject, value.KindBoolean, value.KindString,
	}
	yOrder = []value.Kind{
		value.KindDouble, value.KindInt, value.KindFloat, value.KindLong, value.KindBoolean, value.KindObject,
	}
)

// observable reports whether an X path of this kind feeds the linearity tracker.
func observable(k value.Kind) bool {
	return k != value.KindString
}

// xType maps an accessor kind onto the X column it fills.
func xType(k value.Kind) value.Kind {
	switch k {
	case value.KindString, value.KindDateTime:
		return k
	default:
		return value.KindDouble
	}
}

// column is the working list of one path during a full pass.
type column struct {
	acc    *accessor.Accessor
	nums   []float64
	strs   []string
	times  []time.Time
	groups [][]float64 // Object paths only; nil entries for scalar items
}

// point is one item's extracted values for a dependent.
type point struct {
	xNum  float64
	xStr  string
	xTime time.Time
	ys    []float64
	group []float64

	// syntheticX is set when xNum stands in for an absent X path.
	syntheticX bool
}

// buildColumns iterates the source once and extracts every path. xPaths are
// the paths whose values are observed by the linearity tracker.
func (c *Cache) buildColumns(paths []string, xPaths map[string]bool) (map[string]*column, int, error) {
	n := c.src.Len()
	cols := make(map[string]*column, len(paths))
	if n == 0 {
		return cols, 0, nil
	}

	sample := c.src.At(0)
	for _, p := range paths {
		if _, done := cols[p]; done || p == "" {
			continue
		}
		acc, ok := c.accessors.GetOrCreate(c.factory, p, sample)
		if !ok {
			c.logf(3, "series: path %q not found on %T, ignored", p, sample)
			continue
		}
		cols[p] = &column{acc: acc}
		if xPaths[p] && observable(xType(acc.Kind)) {
			c.linearity.Reset(p)
		}
	}

	for i := 0; i < n; i++ {
		item := c.src.At(i)
		for p, col := range cols {
			if err := col.appendFrom(item, i); err != nil {
				return nil, 0, err
			}
			if xPaths[p] && observable(xType(col.acc.Kind)) {
				c.observeLast(p, col)
			}
		}
	}
	return cols, n, nil
}

// observeLast feeds the value just appended to col into the tracker.
func (c *Cache) observeLast(p string, col *column) {
	switch col.acc.Kind {
	case value.KindDateTime:
		c.linearity.Observe(p, value.UnixSeconds(col.times[len(col.times)-1]))
	default:
		if v := col.nums[len(col.nums)-1]; !math.IsNaN(v) {
			c.linearity.Observe(p, v)
		}
	}
}

// appendFrom extracts one item into the column.
func (col *column) appendFrom(item interface{}, index int) error {
	v, ok := col.acc.Get(item)
	switch col.acc.Kind {
	case value.KindString:
		col.strs = append(col.strs, v.Str())
		return nil
	case value.KindDateTime:
		col.times = append(col.times, v.Time())
		return nil
	}

	if !ok {
		col.nums = append(col.nums, math.NaN())
		if col.acc.Kind == value.KindObject {
			col.groups = append(col.groups, nil)
		}
		return nil
	}
	if v.Kind() == value.KindGrouped {
		col.nums = append(col.nums, math.NaN())
		col.groups = append(col.groups, v.Group())
		return nil
	}
	f, err := v.Number()
	if err != nil {
		return fmt.Errorf("series: item %d path %q: %w", index, col.acc.Path, err)
	}
	col.nums = append(col.nums, f)
	if col.acc.Kind == value.KindObject {
		col.groups = append(col.groups, nil)
	}
	return nil
}

// groupAt returns the sequence of item i, wrapping scalar values.
func (col *column) groupAt(i int) []float64 {
	if col.groups != nil && col.groups[i] != nil {
		return append([]float64(nil), col.groups[i]...)
	}
	if math.IsNaN(col.nums[i]) {
		return []float64{}
	}
	return []float64{col.nums[i]}
}

// GenerateList runs a full pass for every dependent and notifies them.
func (c *Cache) GenerateList() error {
	if err := c.generateList(); err != nil {
		return err
	}
	for _, d := range c.dependents {
		d.UpdateArea()
	}
	return nil
}

func (c *Cache) generateList() error {
	var paths []string
	xPaths := make(map[string]bool)
	for _, d := range c.dependents {
		paths = append(paths, d.paths()...)
		if d.XPath != "" {
			xPaths[d.XPath] = true
		}
	}
	cols, n, err := c.buildColumns(paths, xPaths)
	if err != nil {
		return err
	}
	for _, d := range c.dependents {
		c.assign(d, cols, n)
	}
	c.logf(2, "series: full pass over %d items, %d paths, %d dependents", n, len(cols), len(c.dependents))
	return nil
}

// GenerateForDependent runs a full pass restricted to d's paths and notifies d.
func (c *Cache) GenerateForDependent(d *Dependent) error {
	if d.cache != c {
		return ErrNotAttached
	}
	if err := c.generateForDependent(d); err != nil {
		return err
	}
	d.UpdateArea()
	return nil
}

func (c *Cache) generateForDependent(d *Dependent) error {
	xPaths := map[string]bool{}
	if d.XPath != "" {
		xPaths[d.XPath] = true
	}
	cols, n, err := c.buildColumns(d.paths(), xPaths)
	if err != nil {
		return err
	}
	c.assign(d, cols, n)
	c.logf(2, "series: scoped pass for %q over %d items", d.Name, n)
	return nil
}

// assign fills d's columns from the working lists of a pass over n items.
func (c *Cache) assign(d *Dependent, cols map[string]*column, n int) {
	if acc, ok := c.accessors.Find(d.XPath, xOrder...); ok {
		d.XValueType = xType(acc.Kind)
	} else {
		d.XValueType = value.KindDouble
	}
	d.clear()
	if n == 0 {
		return
	}

	d.PointsCount = n
	d.ActualData = make([]interface{}, n)
	d.XIndexedList = make([]float64, n)
	for i := 0; i < n; i++ {
		d.ActualData[i] = c.src.At(i)
		d.XIndexedList[i] = float64(i)
	}

	xcol := c.findColumn(cols, d.XPath, xOrder)
	switch {
	case xcol == nil:
		d.XDoubleValues = append([]float64(nil), d.XIndexedList...)
	case d.XValueType == value.KindString:
		d.XStringValues = append([]string(nil), xcol.strs...)
	case d.XValueType == value.KindDateTime:
		d.XDateTimeValues = append([]time.Time(nil), xcol.times...)
	default:
		d.XDoubleValues = append([]float64(nil), xcol.nums...)
	}
	d.IsLinearData = xcol == nil || c.linearity.IsLinear(d.XPath)

	if d.IsGroupedY {
		d.YDoubleValues = make([][]float64, n)
		for i := range d.YDoubleValues {
			d.YDoubleValues[i] = []float64{}
		}
		for _, y := range d.YPaths {
			ycol := c.findColumn(cols, y, yOrder)
			if ycol == nil {
				continue
			}
			for i := 0; i < n; i++ {
				d.YDoubleValues[i] = ycol.groupAt(i)
			}
		}
		return
	}

	for i, y := range d.YPaths {
		ycol := c.findColumn(cols, y, yOrder)
		if ycol == nil {
			d.YDoubleValues[i] = nanColumn(n)
			continue
		}
		d.YDoubleValues[i] = append([]float64(nil), ycol.nums...)
	}
}

// findColumn returns the working list of path if its accessor kind is in order.
func (c *Cache) findColumn(cols map[string]*column, path string, order []value.Kind) *column {
	if _, ok := c.accessors.Find(path, order...); !ok {
		return nil
	}
	return cols[path]
}

func nanColumn(n int) []float64 {
	col := make([]float64, n)
	for i := range col {
		col[i] = math.NaN()
	}
	return col
}

// extract computes one item's values for d, used by incremental updates.
func (c *Cache) extract(d *Dependent, item interface{}, synthetic float64) (point, error) {
	var pt point
	pt.xNum = synthetic
	acc, ok := c.ensureAccessor(d.XPath, item, xOrder)
	pt.syntheticX = !ok
	if ok {
		v, found := acc.Get(item)
		switch xType(acc.Kind) {
		case value.KindString:
			pt.xStr = v.Str()
		case value.KindDateTime:
			pt.xTime = v.Time()
		default:
			pt.xNum = math.NaN()
			if found && v.Kind() != value.KindGrouped {
				f, err := v.Number()
				if err != nil {
					return pt, fmt.Errorf("series: path %q: %w", d.XPath, err)
				}
				pt.xNum = f
			}
		}
	}

	if d.IsGroupedY {
		pt.group = []float64{}
		for _, y := range d.YPaths {
			acc, ok := c.ensureAccessor(y, item, yOrder)
			if !ok {
				continue
			}
			g, err := groupOf(acc, item)
			if err != nil {
				return pt, err
			}
			pt.group = g
		}
		return pt, nil
	}

	pt.ys = make([]float64, len(d.YPaths))
	for i, y := range d.YPaths {
		pt.ys[i] = math.NaN()
		acc, ok := c.ensureAccessor(y, item, yOrder)
		if !ok {
			continue
		}
		v, found := acc.Get(item)
		if !found || v.Kind() == value.KindGrouped {
			continue
		}
		f, err := v.Number()
		if err != nil {
			return pt, fmt.Errorf("series: path %q: %w", y, err)
		}
		pt.ys[i] = f
	}
	return pt, nil
}

// ensureAccessor returns the path's accessor, compiling it from item when the
// cache has not seen the path yet.
func (c *Cache) ensureAccessor(path string, item interface{}, order []value.Kind) (*accessor.Accessor, bool) {
	if path == "" {
		return nil, false
	}
	if _, ok := c.accessors.GetOrCreate(c.factory, path, item); !ok {
		return nil, false
	}
	return c.accessors.Find(path, order...)
}

func groupOf(acc *accessor.Accessor, item interface{}) ([]float64, error) {
	v, found := acc.Get(item)
	if !found {
		return []float64{}, nil
	}
	if v.Kind() == value.KindGrouped {
		return v.Group(), nil
	}
	f, err := v.Number()
	if err != nil {
		return nil, fmt.Errorf("series: path %q: %w", acc.Path, err)
	}
	return []float64{f}, nil
}
