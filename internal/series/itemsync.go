package series

import (
	"errors"
	"slices"

	"github.com/zot/seriesdata/internal/source"
	"github.com/zot/seriesdata/internal/value"
)

// HandleItemChange overwrites the point of item after one of its fields
// changed. field names the changed field; empty means any field. The item is
// located by an identity scan of the source; a miss is skipped silently
// because the item may already have been removed.
func (c *Cache) HandleItemChange(item interface{}, field string) error {
	idx := source.IndexOf(c.src, item)
	if idx < 0 {
		c.logf(3, "series: changed item %T not in source, skipped", item)
		return nil
	}

	var errs []error
	for _, d := range c.Dependents() {
		if idx >= d.PointsCount || (field != "" && !d.usesPath(field)) {
			continue
		}
		if err := c.overwritePoint(d, idx, item, field); err != nil {
			errs = append(errs, err)
			continue
		}
		d.IsLinearData = d.XPath == "" || c.linearity.IsLinear(d.XPath)
		d.UpdateArea()
	}
	return errors.Join(errs...)
}

// overwritePoint replaces the values at idx, leaving the columns of fields
// other than field untouched.
func (c *Cache) overwritePoint(d *Dependent, idx int, item interface{}, field string) error {
	pt, err := c.extract(d, item, d.XIndexedList[idx])
	if err != nil {
		return err
	}
	d.ActualData[idx] = item

	if field == "" || field == d.XPath {
		if _, ok := c.accessors.Find(d.XPath, xOrder...); ok {
			c.observeX(d, idx, idx+1, pt)
			switch d.XValueType {
			case value.KindString:
				d.XStringValues[idx] = pt.xStr
			case value.KindDateTime:
				d.XDateTimeValues[idx] = pt.xTime
			default:
				d.XDoubleValues[idx] = pt.xNum
			}
		}
	}

	if d.IsGroupedY {
		if field == "" || slices.Contains(d.YPaths, field) {
			d.YDoubleValues[idx] = pt.group
		}
		return nil
	}
	for i, y := range d.YPaths {
		if field == "" || field == y {
			d.YDoubleValues[i][idx] = pt.ys[i]
		}
	}
	return nil
}
