package series

import (
	"errors"
	"math"
	"slices"

	"github.com/zot/seriesdata/internal/source"
	"github.com/zot/seriesdata/internal/value"
)

// errMalformed marks an event whose indices do not fit a dependent's columns.
var errMalformed = errors.New("malformed change event")

// HandleChange applies one structural change to every dependent. It is
// subscribed to sources that implement source.ChangeNotifier and may be
// called directly by hosts with their own notification plumbing.
//
// Events with indices outside the columns, or Replace events whose old and
// new item counts differ, reset the affected dependents instead.
func (c *Cache) HandleChange(ev source.ChangeEvent) error {
	var errs []error
	for _, d := range c.Dependents() {
		err := c.applyChange(d, ev)
		if errors.Is(err, errMalformed) {
			c.logf(1, "series: %s on %q: %v, resetting", ev.Action, d.Name, err)
			c.resetDependent(d)
			err = nil
		}
		if err != nil {
			errs = append(errs, err)
		}
		d.IsLinearData = d.XPath == "" || c.linearity.IsLinear(d.XPath)
		d.UpdateArea()
	}
	return errors.Join(errs...)
}

func (c *Cache) applyChange(d *Dependent, ev source.ChangeEvent) error {
	switch ev.Action {
	case source.ActionAdd:
		if d.PointsCount == 0 {
			// the source already holds the new items
			return c.generateForDependent(d)
		}
		start := ev.NewStartIndex
		if start < 0 || start > d.PointsCount {
			return errMalformed
		}
		pts, err := c.extractAll(d, ev.NewItems)
		if err != nil {
			return err
		}
		for i, item := range ev.NewItems {
			c.placePoint(d, start+i, item, pts[i])
		}

	case source.ActionRemove:
		start, k := ev.OldStartIndex, len(ev.OldItems)
		if start < 0 || start+k > d.PointsCount {
			return errMalformed
		}
		for i := 0; i < k; i++ {
			c.removePoint(d, start)
		}

	case source.ActionMove:
		from, to, k := ev.OldStartIndex, ev.NewStartIndex, len(ev.NewItems)
		if from < 0 || from+k > d.PointsCount || to < 0 || to > d.PointsCount {
			return errMalformed
		}
		pts, err := c.extractAll(d, ev.NewItems)
		if err != nil {
			return err
		}
		for i := 0; i < k; i++ {
			c.removePoint(d, from)
		}
		if from < to {
			to -= k
		}
		for i, item := range ev.NewItems {
			c.placePoint(d, to+i, item, pts[i])
		}

	case source.ActionReplace:
		start := ev.NewStartIndex
		if len(ev.OldItems) != len(ev.NewItems) || start < 0 || start+len(ev.NewItems) > d.PointsCount {
			return errMalformed
		}
		pts, err := c.extractAll(d, ev.NewItems)
		if err != nil {
			return err
		}
		for i, item := range ev.NewItems {
			c.removePoint(d, start+i)
			c.placePoint(d, start+i, item, pts[i])
		}

	case source.ActionReset:
		c.resetDependent(d)

	default:
		return errMalformed
	}
	return nil
}

// resetDependent empties d. Columns are repopulated by the next full pass
// or by the first Add.
func (c *Cache) resetDependent(d *Dependent) {
	d.clear()
}

// nextSynthetic returns the value appended to XIndexedList by an insert.
func nextSynthetic(d *Dependent) float64 {
	if n := len(d.XIndexedList); n > 0 {
		return d.XIndexedList[n-1] + 1
	}
	return 0
}

// extractAll extracts the points of items before any column changes, so a
// coercion error leaves d intact.
func (c *Cache) extractAll(d *Dependent, items []interface{}) ([]point, error) {
	pts := make([]point, len(items))
	for i, item := range items {
		pt, err := c.extract(d, item, 0)
		if err != nil {
			return nil, err
		}
		pts[i] = pt
	}
	return pts, nil
}

// placePoint inserts item and its extracted point at idx into every column
// of d.
func (c *Cache) placePoint(d *Dependent, idx int, item interface{}, pt point) {
	synthetic := nextSynthetic(d)
	if pt.syntheticX {
		pt.xNum = synthetic
	}
	c.observeX(d, idx, idx, pt)

	d.ActualData = slices.Insert(d.ActualData, idx, item)
	d.XIndexedList = append(d.XIndexedList, synthetic)
	switch d.XValueType {
	case value.KindString:
		d.XStringValues = slices.Insert(d.XStringValues, idx, pt.xStr)
	case value.KindDateTime:
		d.XDateTimeValues = slices.Insert(d.XDateTimeValues, idx, pt.xTime)
	default:
		d.XDoubleValues = slices.Insert(d.XDoubleValues, idx, pt.xNum)
	}

	if d.IsGroupedY {
		d.YDoubleValues = slices.Insert(d.YDoubleValues, idx, pt.group)
	} else {
		for i := range d.YDoubleValues {
			d.YDoubleValues[i] = slices.Insert(d.YDoubleValues[i], idx, pt.ys[i])
		}
	}
	d.PointsCount++
}

// removePoint removes index idx from every column of d. XIndexedList loses
// its last entry rather than the one at idx.
func (c *Cache) removePoint(d *Dependent, idx int) {
	d.ActualData = slices.Delete(d.ActualData, idx, idx+1)
	d.XIndexedList = d.XIndexedList[:len(d.XIndexedList)-1]
	switch d.XValueType {
	case value.KindString:
		d.XStringValues = slices.Delete(d.XStringValues, idx, idx+1)
	case value.KindDateTime:
		d.XDateTimeValues = slices.Delete(d.XDateTimeValues, idx, idx+1)
	default:
		d.XDoubleValues = slices.Delete(d.XDoubleValues, idx, idx+1)
	}

	if d.IsGroupedY {
		d.YDoubleValues = slices.Delete(d.YDoubleValues, idx, idx+1)
	} else {
		for i := range d.YDoubleValues {
			d.YDoubleValues[i] = slices.Delete(d.YDoubleValues[i], idx, idx+1)
		}
	}
	d.PointsCount--
}

// observeX feeds the X value of a point placed at idx into the tracker,
// comparing it with the point in front of it and the point at next.
func (c *Cache) observeX(d *Dependent, idx, next int, pt point) {
	acc, ok := c.accessors.Find(d.XPath, xOrder...)
	if !ok || !observable(xType(acc.Kind)) {
		return
	}
	prev, succ, v := math.NaN(), math.NaN(), pt.xNum
	switch d.XValueType {
	case value.KindDateTime:
		v = value.UnixSeconds(pt.xTime)
		if idx > 0 && idx <= len(d.XDateTimeValues) {
			prev = value.UnixSeconds(d.XDateTimeValues[idx-1])
		}
		if next < len(d.XDateTimeValues) {
			succ = value.UnixSeconds(d.XDateTimeValues[next])
		}
	case value.KindDouble:
		if idx > 0 && idx <= len(d.XDoubleValues) {
			prev = d.XDoubleValues[idx-1]
		}
		if next < len(d.XDoubleValues) {
			succ = d.XDoubleValues[next]
		}
	default:
		return
	}
	if math.IsNaN(v) {
		return
	}
	c.linearity.ObserveBetween(d.XPath, prev, succ, v)
}
