package value

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ErrNotNumeric is returned when an Object value cannot be coerced to a number.
var ErrNotNumeric = errors.New("value is not numeric")

// ToNumber coerces an arbitrary value to float64: any Go numeric or bool type,
// a numeric string, or a fmt.Stringer whose text parses as a number.
func ToNumber(o interface{}) (float64, error) {
	if o == nil {
		return 0, fmt.Errorf("%w: nil", ErrNotNumeric)
	}
	switch x := o.(type) {
	case string:
		return parseNumber(x)
	case fmt.Stringer:
		if f, err := parseNumber(x.String()); err == nil {
			return f, nil
		}
	}

	rv := reflect.ValueOf(o)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), nil
	case reflect.Bool:
		if rv.Bool() {
			return 1, nil
		}
		return 0, nil
	case reflect.String:
		return parseNumber(rv.String())
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return 0, fmt.Errorf("%w: nil %T", ErrNotNumeric, o)
		}
		return ToNumber(rv.Elem().Interface())
	}
	return 0, fmt.Errorf("%w: %T", ErrNotNumeric, o)
}

func parseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, s)
	}
	return f, nil
}

// AsGroup reports whether o is a slice or array whose every element coerces
// to a number, returning the converted sequence. Strings and byte slices are
// never groups.
func AsGroup(o interface{}) ([]float64, bool) {
	switch g := o.(type) {
	case nil, string, []byte:
		return nil, false
	case []float64:
		out := make([]float64, len(g))
		copy(out, g)
		return out, true
	}

	rv := reflect.ValueOf(o)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}

	out := make([]float64, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		f, err := ToNumber(rv.Index(i).Interface())
		if err != nil {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}
