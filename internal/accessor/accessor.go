// Package accessor compiles typed getters for (item type, field name) pairs.
//
// A getter is built once from a sample item and then reused for every item of
// the source. Struct fields are resolved to a field index up front so reads do
// not repeat the name lookup; maps and Fielder items resolve dynamically.
package accessor

import (
	"reflect"
	"time"

	"github.com/zot/seriesdata/internal/value"
)

// Fielder is implemented by items that expose named fields without being
// Go structs or maps (Lua tables, for example).
type Fielder interface {
	Field(name string) (interface{}, bool)
}

// Getter extracts a value from an item. ok is false when the item does not
// carry the field (nil pointer, foreign type, missing map key).
type Getter func(item interface{}) (v value.Value, ok bool)

// Accessor is a compiled getter for one path, classified into a value kind.
type Accessor struct {
	Path string
	Kind value.Kind
	get  Getter
}

// Get reads the accessor's field from item.
func (a *Accessor) Get(item interface{}) (value.Value, bool) {
	if item == nil {
		return value.Value{}, false
	}
	return a.get(item)
}

// compileKey identifies a struct-backed accessor.
type compileKey struct {
	typ  reflect.Type
	path string
}

// Factory builds accessors and caches the struct-backed ones by type and path.
// A Factory is owned by a series registry; there is no package-level cache.
type Factory struct {
	compiled map[compileKey]*Accessor
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{compiled: make(map[compileKey]*Accessor)}
}

// Compile builds an accessor for path by inspecting sample.
// Returns false when sample has no readable field of that name.
func (f *Factory) Compile(sample interface{}, path string) (*Accessor, bool) {
	if sample == nil || path == "" {
		return nil, false
	}

	if fd, ok := sample.(Fielder); ok {
		return compileFielder(fd, path)
	}

	t := reflect.TypeOf(sample)
	key := compileKey{typ: t, path: path}
	if a, ok := f.compiled[key]; ok {
		return a, true
	}

	var (
		a  *Accessor
		ok bool
	)
	base := t
	if base.Kind() == reflect.Ptr {
		base = base.Elem()
	}
	switch base.Kind() {
	case reflect.Struct:
		a, ok = compileStruct(t, path)
		if ok {
			f.compiled[key] = a
		}
	case reflect.Map:
		a, ok = compileMap(sample, path)
	}
	return a, ok
}

// compileStruct resolves an exported field, then a zero-argument method.
func compileStruct(t reflect.Type, path string) (*Accessor, bool) {
	isPtr := t.Kind() == reflect.Ptr
	base := t
	if isPtr {
		base = t.Elem()
	}

	if sf, ok := base.FieldByName(path); ok && sf.IsExported() {
		kind := value.ClassifyType(sf.Type)
		index := sf.Index
		return &Accessor{Path: path, Kind: kind, get: func(item interface{}) (value.Value, bool) {
			rv := reflect.ValueOf(item)
			if rv.Type() != t {
				return value.Value{}, false
			}
			if isPtr {
				if rv.IsNil() {
					return value.Value{}, false
				}
				rv = rv.Elem()
			}
			fv, err := rv.FieldByIndexErr(index)
			if err != nil {
				return value.Value{}, false
			}
			return fromReflect(kind, fv)
		}}, true
	}

	if m, ok := t.MethodByName(path); ok && m.Type.NumIn() == 1 && m.Type.NumOut() >= 1 {
		kind := value.ClassifyType(m.Type.Out(0))
		index := m.Index
		return &Accessor{Path: path, Kind: kind, get: func(item interface{}) (value.Value, bool) {
			rv := reflect.ValueOf(item)
			if rv.Type() != t || (isPtr && rv.IsNil()) {
				return value.Value{}, false
			}
			return fromReflect(kind, rv.Method(index).Call(nil)[0])
		}}, true
	}

	return nil, false
}

// compileMap builds a dynamic getter over a string-keyed map.
func compileMap(sample interface{}, path string) (*Accessor, bool) {
	rv := reflect.ValueOf(sample)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	mt := rv.Type()
	if mt.Key().Kind() != reflect.String {
		return nil, false
	}
	key := reflect.ValueOf(path).Convert(mt.Key())
	mv := rv.MapIndex(key)
	if !mv.IsValid() {
		return nil, false
	}

	kind := value.ClassifyType(mt.Elem())
	if mt.Elem().Kind() == reflect.Interface {
		kind = dynamicKind(mv.Interface())
	}

	return &Accessor{Path: path, Kind: kind, get: func(item interface{}) (value.Value, bool) {
		iv := reflect.ValueOf(item)
		if iv.Kind() == reflect.Ptr {
			if iv.IsNil() {
				return value.Value{}, false
			}
			iv = iv.Elem()
		}
		if iv.Kind() != reflect.Map || iv.Type() != mt {
			return value.Value{}, false
		}
		v := iv.MapIndex(key)
		if !v.IsValid() {
			return value.Value{}, false
		}
		return fromDynamic(kind, v.Interface())
	}}, true
}

func compileFielder(sample Fielder, path string) (*Accessor, bool) {
	x, ok := sample.Field(path)
	if !ok {
		return nil, false
	}
	kind := dynamicKind(x)
	return &Accessor{Path: path, Kind: kind, get: func(item interface{}) (value.Value, bool) {
		fd, ok := item.(Fielder)
		if !ok {
			return value.Value{}, false
		}
		x, ok := fd.Field(path)
		if !ok {
			return value.Value{}, false
		}
		return fromDynamic(kind, x)
	}}, true
}

func dynamicKind(x interface{}) value.Kind {
	if x == nil {
		return value.KindObject
	}
	return value.ClassifyType(reflect.TypeOf(x))
}

// fromReflect converts a statically typed field; kind was derived from its type.
func fromReflect(kind value.Kind, fv reflect.Value) (value.Value, bool) {
	switch kind {
	case value.KindDouble:
		return value.Double(fv.Float()), true
	case value.KindString:
		return value.String(fv.String()), true
	case value.KindDateTime:
		return value.DateTime(fv.Interface().(time.Time)), true
	case value.KindInt:
		return value.Int(fv.Int()), true
	case value.KindBoolean:
		return value.Boolean(fv.Bool()), true
	case value.KindFloat:
		return value.Float(float32(fv.Float())), true
	case value.KindLong:
		return value.Long(fv.Int()), true
	default:
		if !fv.CanInterface() {
			return value.Value{}, false
		}
		return value.Object(fv.Interface()), true
	}
}

// fromDynamic converts a value whose type was only known from the sample item.
// Later items may carry a different runtime type; numeric kinds coerce.
func fromDynamic(kind value.Kind, x interface{}) (value.Value, bool) {
	switch kind {
	case value.KindString:
		s, ok := x.(string)
		return value.String(s), ok
	case value.KindDateTime:
		t, ok := x.(time.Time)
		return value.DateTime(t), ok
	case value.KindBoolean:
		if b, ok := x.(bool); ok {
			return value.Boolean(b), true
		}
		f, err := value.ToNumber(x)
		return value.Boolean(f != 0), err == nil
	case value.KindDouble, value.KindInt, value.KindFloat, value.KindLong:
		f, err := value.ToNumber(x)
		if err != nil {
			return value.Value{}, false
		}
		switch kind {
		case value.KindInt:
			return value.Int(int64(f)), true
		case value.KindFloat:
			return value.Float(float32(f)), true
		case value.KindLong:
			return value.Long(int64(f)), true
		}
		return value.Double(f), true
	default:
		return value.Object(x), true
	}
}
