// Package source defines what the accessor cache needs from an item
// collection: indexed enumeration plus optional structural and per-item
// change subscriptions.
package source

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrIndexOutOfRange is returned by List mutations given an invalid index.
var ErrIndexOutOfRange = errors.New("index out of range")

// Source is an indexed sequence of items with stable identity.
type Source interface {
	Len() int
	At(i int) interface{}
}

// Action identifies a structural change.
type Action int

const (
	ActionAdd Action = iota
	ActionRemove
	ActionReplace
	ActionMove
	ActionReset
)

// String returns the string representation of an Action.
func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "add"
	case ActionRemove:
		return "remove"
	case ActionReplace:
		return "replace"
	case ActionMove:
		return "move"
	case ActionReset:
		return "reset"
	default:
		return fmt.Sprintf("unknown(%d)", a)
	}
}

// ChangeEvent describes one structural change, delivered after the source
// has been mutated.
//
// For Move, NewStartIndex is expressed before the removal: the item is
// placed in front of the item that was at NewStartIndex.
type ChangeEvent struct {
	Action        Action
	NewStartIndex int
	OldStartIndex int
	NewItems      []interface{}
	OldItems      []interface{}
}

// ChangeHandler receives structural changes. A returned error is handed
// back to whoever mutated the source.
type ChangeHandler func(ev ChangeEvent) error

// ItemChangeHandler receives per-item field changes. field may be empty
// when the item does not know which field changed.
type ItemChangeHandler func(item interface{}, field string) error

// ChangeNotifier is implemented by sources that report structural changes.
type ChangeNotifier interface {
	SubscribeChanges(h ChangeHandler) (cancel func())
}

// ItemChangeNotifier is implemented by sources that report field changes of their items.
type ItemChangeNotifier interface {
	SubscribeItemChanges(h ItemChangeHandler) (cancel func())
}

// SameItem reports whether a and b are the same item. Reference kinds
// (pointers, maps, channels, funcs, slices) compare by address; other
// comparable values compare by equality.
func SameItem(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	if va.Comparable() && vb.Comparable() {
		return va.Equal(vb)
	}
	return false
}

// IndexOf scans src for item and returns the first matching index, or -1.
func IndexOf(src Source, item interface{}) int {
	n := src.Len()
	for i := 0; i < n; i++ {
		if SameItem(src.At(i), item) {
			return i
		}
	}
	return -1
}

// Static is a fixed source with no change notifications.
type Static struct {
	items []interface{}
}

// NewStatic creates a static source over items.
func NewStatic(items ...interface{}) *Static {
	return &Static{items: items}
}

// Len returns the number of items.
func (s *Static) Len() int { return len(s.items) }

// At returns the item at index i.
func (s *Static) At(i int) interface{} { return s.items[i] }
