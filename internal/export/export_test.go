package export

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zot/seriesdata/internal/series"
	"github.com/zot/seriesdata/internal/source"
)

type reading struct {
	At   time.Time
	Temp float64
	Hum  float64
}

type band struct {
	Label string
	Range []float64
}

func bind(t *testing.T, src source.Source, d *series.Dependent) *series.Dependent {
	t.Helper()
	_, err := series.NewRegistry(nil).Bind(src, d)
	require.NoError(t, err)
	return d
}

func TestArrowRecordDateTime(t *testing.T) {
	base := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	d := bind(t, source.NewStatic(
		&reading{At: base, Temp: 20, Hum: 0.4},
		&reading{At: base.Add(time.Hour), Temp: 22, Hum: 0.5},
	), &series.Dependent{Name: "weather", XPath: "At", YPaths: []string{"Temp", "Missing"}})

	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	rec, err := ArrowRecord(d, mem)
	require.NoError(t, err)
	defer rec.Release()

	assert.Equal(t, int64(2), rec.NumRows())
	assert.Equal(t, int64(4), rec.NumCols())
	assert.Equal(t, "Temp", rec.ColumnName(2))
	assert.Equal(t, arrow.TIMESTAMP, rec.Column(1).DataType().ID())

	ts := rec.Column(1).(*array.Timestamp)
	assert.Equal(t, arrow.Timestamp(base.Add(time.Hour).UnixMicro()), ts.Value(1))
	temp := rec.Column(2).(*array.Float64)
	assert.Equal(t, 22.0, temp.Value(1))
	assert.Equal(t, 2, rec.Column(3).NullN(), "unresolved Y path exports nulls")
}

func TestArrowRecordGrouped(t *testing.T) {
	d := bind(t, source.NewStatic(
		&band{Label: "a", Range: []float64{1, 2}},
		&band{Label: "b", Range: []float64{3, 4, 5}},
	), &series.Dependent{XPath: "Label", YPaths: []string{"Range"}, IsGroupedY: true})

	rec, err := ArrowRecord(d, nil)
	require.NoError(t, err)
	defer rec.Release()

	assert.Equal(t, int64(3), rec.NumCols())
	labels := rec.Column(1).(*array.String)
	assert.Equal(t, "b", labels.Value(1))
	list := rec.Column(2).(*array.List)
	start, end := list.ValueOffsets(1)
	assert.Equal(t, int64(3), end-start)
}

func TestInconsistentRejected(t *testing.T) {
	d := &series.Dependent{YPaths: []string{"Y"}, PointsCount: 2, XIndexedList: []float64{0, 1}, XDoubleValues: []float64{0, 1}, YDoubleValues: [][]float64{{1}}}
	_, err := ArrowRecord(d, nil)
	assert.ErrorIs(t, err, ErrInconsistent)
	_, err = Points(d)
	assert.ErrorIs(t, err, ErrInconsistent)
}

func TestPoints(t *testing.T) {
	d := bind(t, source.NewStatic(&reading{Temp: 1, Hum: 2}), &series.Dependent{Name: "s", XPath: "Nope", YPaths: []string{"Temp", "Hum"}})
	rows, err := Points(d)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].X)
	assert.Equal(t, 0.0, *rows[0].X, "synthetic X")
	assert.Equal(t, []float64{1, 2}, rows[0].Y)
	assert.Nil(t, rows[0].XTime)
}

func TestWriteParquet(t *testing.T) {
	a := bind(t, source.NewStatic(&reading{Temp: 1}, &reading{Temp: 2}), &series.Dependent{Name: "a", XPath: "Temp", YPaths: []string{"Hum"}})
	b := bind(t, source.NewStatic(&band{Label: "x", Range: []float64{7, 8}}), &series.Dependent{Name: "b", XPath: "Label", YPaths: []string{"Range"}, IsGroupedY: true})

	path := filepath.Join(t.TempDir(), "series.parquet")
	require.NoError(t, WriteParquet(path, a, b))

	rows, err := parquet.ReadFile[Point](path)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "a", rows[0].Series)
	require.NotNil(t, rows[1].X)
	assert.Equal(t, 2.0, *rows[1].X)
	require.NotNil(t, rows[2].XLabel)
	assert.Equal(t, "x", *rows[2].XLabel)
	assert.Equal(t, []float64{7, 8}, rows[2].Y)
	assert.False(t, math.IsNaN(rows[0].Y[0]))
}

func TestWriteArrow(t *testing.T) {
	d := bind(t, source.NewStatic(&reading{Temp: 1, Hum: 5}, &reading{Temp: 2, Hum: 6}), &series.Dependent{Name: "a", XPath: "Temp", YPaths: []string{"Hum"}})

	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	var buf bytes.Buffer
	require.NoError(t, WriteArrow(&buf, d, mem))

	fr, err := ipc.NewFileReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer fr.Close()
	assert.Equal(t, 1, fr.NumRecords())
	assert.Equal(t, []string{"index", "x", "Hum"}, fieldNames(fr.Schema()))

	rec, err := fr.Record(0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.NumRows())
	assert.Equal(t, []float64{5, 6}, rec.Column(2).(*array.Float64).Float64Values())
}

func fieldNames(s *arrow.Schema) []string {
	names := make([]string, 0, s.NumFields())
	for _, f := range s.Fields() {
		names = append(names, f.Name)
	}
	return names
}
