package export

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/zot/seriesdata/internal/series"
	"github.com/zot/seriesdata/internal/value"
)

// Point is one row of a Parquet series snapshot. Exactly one X column is set,
// matching the dependent's X kind; Y holds the point's Y values in path
// order, or its group when the series is grouped.
type Point struct {
	Series string     `parquet:"series,snappy,dict"`
	Index  float64    `parquet:"index,snappy"`
	X      *float64   `parquet:"x,optional,snappy"`
	XLabel *string    `parquet:"x_label,optional,snappy"`
	XTime  *time.Time `parquet:"x_time,optional,snappy"`
	Y      []float64  `parquet:"y,list"`
}

// Points converts d's columns into rows.
func Points(d *series.Dependent) ([]Point, error) {
	if err := check(d); err != nil {
		return nil, err
	}
	rows := make([]Point, d.PointsCount)
	for i := range rows {
		p := Point{Series: d.Name, Index: d.XIndexedList[i]}
		switch d.XValueType {
		case value.KindString:
			s := d.XStringValues[i]
			p.XLabel = &s
		case value.KindDateTime:
			t := d.XDateTimeValues[i]
			p.XTime = &t
		default:
			if x := d.XDoubleValues[i]; !math.IsNaN(x) {
				p.X = &x
			}
		}
		if d.IsGroupedY {
			p.Y = append([]float64{}, d.YDoubleValues[i]...)
		} else {
			p.Y = make([]float64, len(d.YDoubleValues))
			for j, col := range d.YDoubleValues {
				p.Y[j] = col[i]
			}
		}
		rows[i] = p
	}
	return rows, nil
}

// WriteParquet writes the rows of every dependent to a Parquet file.
func WriteParquet(outputPath string, deps ...*series.Dependent) error {
	var rows []Point
	for _, d := range deps {
		p, err := Points(d)
		if err != nil {
			return fmt.Errorf("series %q: %w", d.Name, err)
		}
		rows = append(rows, p...)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[Point](file)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}
