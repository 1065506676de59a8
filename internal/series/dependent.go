// Package series keeps typed column arrays in sync with an item source.
//
// A Registry issues one Handle per distinct source. Dependents (chart series)
// attach to a handle with an X path and Y paths; the handle's Cache compiles
// one accessor per path, fills each dependent's columns in a full pass, and
// then applies structural and per-item change events point by point.
//
// Nothing in this package is safe for concurrent use. Hosts that receive
// events on several goroutines must serialize calls (see internal/server).
package series

import (
	"time"

	"github.com/zot/seriesdata/internal/value"
)

// Dependent is a consumer bound to one source. The host sets the inputs
// before attaching and reads the outputs after any operation completes.
type Dependent struct {
	// Inputs
	Name                 string
	XPath                string
	YPaths               []string
	IsGroupedY           bool // each item's Y value is a sequence (range, box plot)
	ListenPropertyChange bool

	// OnAreaChanged is called once after every operation that changed the columns.
	OnAreaChanged func()

	// Outputs. Exactly one X slice is populated, selected by XValueType
	// (Double, String or DateTime).
	XDoubleValues   []float64
	XStringValues   []string
	XDateTimeValues []time.Time
	XValueType      value.Kind
	XIndexedList    []float64

	// YDoubleValues holds one column per Y path, aligned with YPaths. When
	// IsGroupedY is set it instead holds one sequence per item.
	YDoubleValues [][]float64

	ActualData   []interface{}
	PointsCount  int
	IsLinearData bool

	cache *Cache
}

// UpdateArea invokes OnAreaChanged if set.
func (d *Dependent) UpdateArea() {
	if d.OnAreaChanged != nil {
		d.OnAreaChanged()
	}
}

// Attached reports whether the dependent is bound to a cache.
func (d *Dependent) Attached() bool {
	return d.cache != nil
}

// Handle returns the handle of the source the dependent is bound to.
func (d *Dependent) Handle() (Handle, bool) {
	if d.cache == nil {
		return 0, false
	}
	return d.cache.handle, true
}

// X returns the X value at index i as a float64 when the X column is numeric.
func (d *Dependent) X(i int) (float64, bool) {
	if d.XValueType != value.KindDouble || i < 0 || i >= len(d.XDoubleValues) {
		return 0, false
	}
	return d.XDoubleValues[i], true
}

// usesPath reports whether p is the X path or one of the Y paths.
func (d *Dependent) usesPath(p string) bool {
	if d.XPath == p {
		return true
	}
	for _, y := range d.YPaths {
		if y == p {
			return true
		}
	}
	return false
}

// paths returns X and Y paths, skipping empty ones.
func (d *Dependent) paths() []string {
	out := make([]string, 0, len(d.YPaths)+1)
	if d.XPath != "" {
		out = append(out, d.XPath)
	}
	for _, y := range d.YPaths {
		if y != "" {
			out = append(out, y)
		}
	}
	return out
}

// clear empties every output column, keeping XValueType.
func (d *Dependent) clear() {
	d.XDoubleValues = []float64{}
	d.XStringValues = nil
	d.XDateTimeValues = nil
	switch d.XValueType {
	case value.KindString:
		d.XDoubleValues = nil
		d.XStringValues = []string{}
	case value.KindDateTime:
		d.XDoubleValues = nil
		d.XDateTimeValues = []time.Time{}
	}
	d.XIndexedList = []float64{}
	d.ActualData = []interface{}{}
	d.PointsCount = 0
	d.IsLinearData = true
	if d.IsGroupedY {
		d.YDoubleValues = [][]float64{}
		return
	}
	d.YDoubleValues = make([][]float64, len(d.YPaths))
	for i := range d.YDoubleValues {
		d.YDoubleValues[i] = []float64{}
	}
}

// xLen returns the length of the populated X column.
func (d *Dependent) xLen() int {
	switch d.XValueType {
	case value.KindString:
		return len(d.XStringValues)
	case value.KindDateTime:
		return len(d.XDateTimeValues)
	default:
		return len(d.XDoubleValues)
	}
}

// consistent reports whether every column has PointsCount entries.
func (d *Dependent) consistent() bool {
	n := d.PointsCount
	if len(d.ActualData) != n || len(d.XIndexedList) != n || d.xLen() != n {
		return false
	}
	if d.IsGroupedY {
		return len(d.YDoubleValues) == n
	}
	for _, col := range d.YDoubleValues {
		if len(col) != n {
			return false
		}
	}
	return true
}
