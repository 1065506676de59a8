package value

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type celsius float64

func TestClassifyType(t *testing.T) {
	tests := []struct {
		sample interface{}
		want   Kind
	}{
		{float64(1), KindDouble},
		{"a", KindString},
		{time.Now(), KindDateTime},
		{int(1), KindInt},
		{int32(1), KindInt},
		{true, KindBoolean},
		{float32(1), KindFloat},
		{int64(1), KindLong},
		{uint(1), KindObject},
		{celsius(1), KindObject},
		{[]float64{1}, KindObject},
		{struct{}{}, KindObject},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyType(reflect.TypeOf(tt.sample)), "%T", tt.sample)
	}
	assert.Equal(t, KindObject, ClassifyType(nil))
}

func TestObjectRoutesSequencesAsGrouped(t *testing.T) {
	v := Object([]interface{}{1, "2.5", float32(3)})
	require.Equal(t, KindGrouped, v.Kind())
	assert.Equal(t, []float64{1, 2.5, 3}, v.Group())

	v = Object([]interface{}{1, "x"})
	assert.Equal(t, KindObject, v.Kind())

	v = Object("12")
	assert.Equal(t, KindObject, v.Kind(), "strings are scalars")
	n, err := v.Number()
	require.NoError(t, err)
	assert.Equal(t, 12.0, n)
}

func TestNumber(t *testing.T) {
	n, err := Boolean(true).Number()
	require.NoError(t, err)
	assert.Equal(t, 1.0, n)

	n, err = Object(celsius(21.5)).Number()
	require.NoError(t, err)
	assert.Equal(t, 21.5, n)

	when := time.Unix(100, 500000000)
	n, err = DateTime(when).Number()
	require.NoError(t, err)
	assert.Equal(t, 100.5, n)

	_, err = Object(struct{ A int }{1}).Number()
	assert.ErrorIs(t, err, ErrNotNumeric)

	_, err = String("abc").Number()
	assert.ErrorIs(t, err, ErrNotNumeric)

	_, err = Object(nil).Number()
	assert.ErrorIs(t, err, ErrNotNumeric)
}

func TestAsGroupCopies(t *testing.T) {
	src := []float64{1, 2}
	g, ok := AsGroup(src)
	require.True(t, ok)
	g[0] = 9
	assert.Equal(t, 1.0, src[0])

	_, ok = AsGroup([]byte("12"))
	assert.False(t, ok)
	_, ok = AsGroup(42)
	assert.False(t, ok)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "Grouped", KindGrouped.String())
	assert.Equal(t, "Unknown(99)", Kind(99).String())
}
