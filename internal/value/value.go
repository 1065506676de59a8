// Package value defines the closed set of value kinds an accessor can produce
// and the tagged Value container that carries one extracted field.
package value

import (
	"fmt"
	"math"
	"reflect"
	"time"
)

// Kind classifies the declared type of a field.
type Kind int

const (
	KindString Kind = iota
	KindDouble
	KindInt
	KindFloat
	KindLong
	KindBoolean
	KindDateTime
	KindObject
	KindGrouped // Object value that turned out to be a sequence of numbers
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindDouble:
		return "Double"
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindLong:
		return "Long"
	case KindBoolean:
		return "Boolean"
	case KindDateTime:
		return "DateTime"
	case KindObject:
		return "Object"
	case KindGrouped:
		return "Grouped"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// IsNumeric reports whether values of this kind convert to a float64 without coercion.
func (k Kind) IsNumeric() bool {
	switch k {
	case KindDouble, KindInt, KindFloat, KindLong, KindBoolean:
		return true
	default:
		return false
	}
}

var timeType = reflect.TypeOf(time.Time{})

// ClassifyType maps a declared Go type onto a Kind by exact match.
// Named types (type Celsius float64) are not an exact match and classify as Object.
func ClassifyType(t reflect.Type) Kind {
	if t == nil {
		return KindObject
	}
	switch t {
	case reflect.TypeOf(float64(0)):
		return KindDouble
	case reflect.TypeOf(""):
		return KindString
	case timeType:
		return KindDateTime
	case reflect.TypeOf(int(0)), reflect.TypeOf(int32(0)):
		return KindInt
	case reflect.TypeOf(false):
		return KindBoolean
	case reflect.TypeOf(float32(0)):
		return KindFloat
	case reflect.TypeOf(int64(0)):
		return KindLong
	}
	return KindObject
}

// Value is a tagged union holding one extracted field.
// Only the member selected by Kind is meaningful.
type Value struct {
	kind  Kind
	num   float64
	str   string
	when  time.Time
	group []float64
	obj   interface{}
}

// String creates a String value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Double creates a Double value.
func Double(f float64) Value { return Value{kind: KindDouble, num: f} }

// Int creates an Int value.
func Int(i int64) Value { return Value{kind: KindInt, num: float64(i)} }

// Float creates a Float value.
func Float(f float32) Value { return Value{kind: KindFloat, num: float64(f)} }

// Long creates a Long value.
func Long(i int64) Value { return Value{kind: KindLong, num: float64(i)} }

// Boolean creates a Boolean value. Numerically true is 1 and false is 0.
func Boolean(b bool) Value {
	v := Value{kind: KindBoolean}
	if b {
		v.num = 1
	}
	return v
}

// DateTime creates a DateTime value.
func DateTime(t time.Time) Value { return Value{kind: KindDateTime, when: t} }

// Grouped creates a Grouped value.
func Grouped(g []float64) Value { return Value{kind: KindGrouped, group: g} }

// Object wraps a value of unclassified type. If the value is a sequence of
// numeric-parseable elements it is routed as Grouped instead.
func Object(o interface{}) Value {
	if g, ok := AsGroup(o); ok {
		return Grouped(g)
	}
	return Value{kind: KindObject, obj: o}
}

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// Str returns the string member.
func (v Value) Str() string { return v.str }

// Time returns the datetime member.
func (v Value) Time() time.Time { return v.when }

// Group returns the grouped member.
func (v Value) Group() []float64 { return v.group }

// Raw returns the wrapped object of an Object value.
func (v Value) Raw() interface{} { return v.obj }

// Number returns the value as a float64. Object values are coerced with
// ToNumber; DateTime values are Unix seconds. String and Grouped values fail.
func (v Value) Number() (float64, error) {
	switch v.kind {
	case KindDouble, KindInt, KindFloat, KindLong, KindBoolean:
		return v.num, nil
	case KindDateTime:
		return UnixSeconds(v.when), nil
	case KindObject:
		return ToNumber(v.obj)
	default:
		return math.NaN(), fmt.Errorf("%w: %s value", ErrNotNumeric, v.kind)
	}
}

// UnixSeconds converts a time to fractional Unix seconds.
func UnixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
