package accessor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zot/seriesdata/internal/value"
)

type point struct {
	X      float64
	Y      int
	Label  string
	When   time.Time
	Range  []float64
	Score  float32
	Big    int64
	Flag   bool
	hidden float64
}

func (p point) Double() float64 { return p.X * 2 }

type tableRow map[string]interface{}

func (r tableRow) Field(name string) (interface{}, bool) {
	v, ok := r[name]
	return v, ok
}

func TestCompileStructKinds(t *testing.T) {
	f := NewFactory()
	sample := &point{}
	tests := []struct {
		path string
		want value.Kind
	}{
		{"X", value.KindDouble},
		{"Y", value.KindInt},
		{"Label", value.KindString},
		{"When", value.KindDateTime},
		{"Range", value.KindObject},
		{"Score", value.KindFloat},
		{"Big", value.KindLong},
		{"Flag", value.KindBoolean},
		{"Double", value.KindDouble},
	}
	for _, tt := range tests {
		a, ok := f.Compile(sample, tt.path)
		require.True(t, ok, tt.path)
		assert.Equal(t, tt.want, a.Kind, tt.path)
	}

	_, ok := f.Compile(sample, "hidden")
	assert.False(t, ok, "unexported fields are unreadable")
	_, ok = f.Compile(sample, "Missing")
	assert.False(t, ok)
}

func TestStructGetter(t *testing.T) {
	f := NewFactory()
	p := &point{X: 1.5, Y: 3, Range: []float64{1, 2}}

	a, ok := f.Compile(p, "X")
	require.True(t, ok)
	v, ok := a.Get(p)
	require.True(t, ok)
	n, _ := v.Number()
	assert.Equal(t, 1.5, n)

	a, _ = f.Compile(p, "Range")
	v, ok = a.Get(p)
	require.True(t, ok)
	assert.Equal(t, value.KindGrouped, v.Kind())
	assert.Equal(t, []float64{1, 2}, v.Group())

	a, _ = f.Compile(p, "Double")
	v, _ = a.Get(p)
	n, _ = v.Number()
	assert.Equal(t, 3.0, n)

	var nilPoint *point
	_, ok = a.Get(nilPoint)
	assert.False(t, ok)
	_, ok = a.Get(point{})
	assert.False(t, ok, "value and pointer types are distinct")
}

func TestFactoryCachesStructAccessors(t *testing.T) {
	f := NewFactory()
	a1, _ := f.Compile(&point{}, "X")
	a2, _ := f.Compile(&point{X: 9}, "X")
	assert.Same(t, a1, a2)
}

func TestMapGetter(t *testing.T) {
	f := NewFactory()
	row := map[string]interface{}{"X": 2.0, "Name": "a", "N": int64(4)}

	a, ok := f.Compile(row, "X")
	require.True(t, ok)
	assert.Equal(t, value.KindDouble, a.Kind)

	// later rows may carry another numeric type
	v, ok := a.Get(map[string]interface{}{"X": 7})
	require.True(t, ok)
	n, _ := v.Number()
	assert.Equal(t, 7.0, n)

	_, ok = a.Get(map[string]interface{}{"Y": 1})
	assert.False(t, ok)

	a, _ = f.Compile(row, "N")
	assert.Equal(t, value.KindLong, a.Kind)

	typed := map[string]float32{"V": 1}
	a, _ = f.Compile(typed, "V")
	assert.Equal(t, value.KindFloat, a.Kind)

	_, ok = f.Compile(row, "Missing")
	assert.False(t, ok)
}

func TestFielderGetter(t *testing.T) {
	f := NewFactory()
	row := tableRow{"X": "text", "G": []interface{}{1.0, 2.0}}

	a, ok := f.Compile(row, "X")
	require.True(t, ok)
	assert.Equal(t, value.KindString, a.Kind)
	v, _ := a.Get(row)
	assert.Equal(t, "text", v.Str())

	a, _ = f.Compile(row, "G")
	v, _ = a.Get(row)
	assert.Equal(t, value.KindGrouped, v.Kind())
}

func TestSet(t *testing.T) {
	f := NewFactory()
	s := NewSet()
	p := &point{}

	a1, ok := s.GetOrCreate(f, "X", p)
	require.True(t, ok)
	a2, _ := s.GetOrCreate(f, "X", p)
	assert.Same(t, a1, a2)

	s.GetOrCreate(f, "Y", p)
	s.GetOrCreate(f, "Label", p)
	_, ok = s.GetOrCreate(f, "Nope", p)
	assert.False(t, ok)
	assert.Equal(t, 3, s.Len())

	found, ok := s.Find("Y", value.KindDouble, value.KindInt)
	require.True(t, ok)
	assert.Equal(t, "Y", found.Path)
	_, ok = s.Find("Y", value.KindDouble)
	assert.False(t, ok)

	assert.Equal(t, []string{"X"}, s.Paths(value.KindDouble))
	s.Remove("X")
	assert.Empty(t, s.Paths(value.KindDouble))
	_, ok = s.Lookup("X")
	assert.False(t, ok)

	s.Clear()
	assert.Equal(t, 0, s.Len())
}
