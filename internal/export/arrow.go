// Package export writes a dependent's columns out as an Arrow record or a
// Parquet file.
package export

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/zot/seriesdata/internal/series"
	"github.com/zot/seriesdata/internal/value"
)

// ErrInconsistent is returned for a dependent whose columns disagree with PointsCount.
var ErrInconsistent = errors.New("series columns out of step")

// Schema returns the Arrow schema of d: "index", "x", then one float64
// column per Y path, or a single "y" list column when d is grouped.
// NaN values are exported as nulls.
func Schema(d *series.Dependent) *arrow.Schema {
	var xType arrow.DataType = arrow.PrimitiveTypes.Float64
	switch d.XValueType {
	case value.KindString:
		xType = arrow.BinaryTypes.String
	case value.KindDateTime:
		xType = &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}
	}
	fields := []arrow.Field{
		{Name: "index", Type: arrow.PrimitiveTypes.Float64},
		{Name: "x", Type: xType},
	}
	if d.IsGroupedY {
		fields = append(fields, arrow.Field{Name: "y", Type: arrow.ListOf(arrow.PrimitiveTypes.Float64), Nullable: true})
	} else {
		for _, y := range d.YPaths {
			fields = append(fields, arrow.Field{Name: y, Type: arrow.PrimitiveTypes.Float64, Nullable: true})
		}
	}
	return arrow.NewSchema(fields, nil)
}

// ArrowRecord copies d's columns into a record. The caller releases it.
func ArrowRecord(d *series.Dependent, mem memory.Allocator) (arrow.Record, error) {
	if err := check(d); err != nil {
		return nil, err
	}
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	b := array.NewRecordBuilder(mem, Schema(d))
	defer b.Release()

	b.Field(0).(*array.Float64Builder).AppendValues(d.XIndexedList, nil)
	switch d.XValueType {
	case value.KindString:
		b.Field(1).(*array.StringBuilder).AppendValues(d.XStringValues, nil)
	case value.KindDateTime:
		tb := b.Field(1).(*array.TimestampBuilder)
		for _, t := range d.XDateTimeValues {
			tb.Append(arrow.Timestamp(t.UnixMicro()))
		}
	default:
		appendFloats(b.Field(1).(*array.Float64Builder), d.XDoubleValues)
	}

	if d.IsGroupedY {
		lb := b.Field(2).(*array.ListBuilder)
		vb := lb.ValueBuilder().(*array.Float64Builder)
		for _, g := range d.YDoubleValues {
			lb.Append(true)
			appendFloats(vb, g)
		}
	} else {
		for i, col := range d.YDoubleValues {
			appendFloats(b.Field(2+i).(*array.Float64Builder), col)
		}
	}
	return b.NewRecord(), nil
}

// WriteArrow writes d as a single-record Arrow IPC file.
func WriteArrow(w io.Writer, d *series.Dependent, mem memory.Allocator) error {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	rec, err := ArrowRecord(d, mem)
	if err != nil {
		return err
	}
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
	if err != nil {
		return err
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return err
	}
	return fw.Close()
}

func appendFloats(b *array.Float64Builder, vals []float64) {
	valid := make([]bool, len(vals))
	for i, v := range vals {
		valid[i] = !math.IsNaN(v)
	}
	b.AppendValues(vals, valid)
}

func check(d *series.Dependent) error {
	n := d.PointsCount
	if len(d.XIndexedList) != n {
		return fmt.Errorf("%w: %d index values for %d points", ErrInconsistent, len(d.XIndexedList), n)
	}
	xn := len(d.XDoubleValues)
	switch d.XValueType {
	case value.KindString:
		xn = len(d.XStringValues)
	case value.KindDateTime:
		xn = len(d.XDateTimeValues)
	}
	if xn != n {
		return fmt.Errorf("%w: %d X values for %d points", ErrInconsistent, xn, n)
	}
	if d.IsGroupedY {
		if len(d.YDoubleValues) != n {
			return fmt.Errorf("%w: %d groups for %d points", ErrInconsistent, len(d.YDoubleValues), n)
		}
		return nil
	}
	if len(d.YDoubleValues) != len(d.YPaths) {
		return fmt.Errorf("%w: %d Y columns for %d paths", ErrInconsistent, len(d.YDoubleValues), len(d.YPaths))
	}
	for i, col := range d.YDoubleValues {
		if len(col) != n {
			return fmt.Errorf("%w: column %q has %d values for %d points", ErrInconsistent, d.YPaths[i], len(col), n)
		}
	}
	return nil
}
