package source

import (
	"errors"
	"fmt"
)

type changeSub struct {
	id int64
	h  ChangeHandler
}

type itemSub struct {
	id int64
	h  ItemChangeHandler
}

// List is a mutable, observable source. Every mutation notifies structural
// subscribers after the items have changed and returns their joined errors.
// List is not safe for concurrent use.
type List struct {
	items     []interface{}
	changes   []changeSub
	itemSubs  []itemSub
	nextSubID int64
}

// NewList creates a list holding items.
func NewList(items ...interface{}) *List {
	l := &List{}
	l.items = append(l.items, items...)
	return l
}

// Len returns the number of items.
func (l *List) Len() int { return len(l.items) }

// At returns the item at index i.
func (l *List) At(i int) interface{} { return l.items[i] }

// Items returns a copy of the items.
func (l *List) Items() []interface{} {
	out := make([]interface{}, len(l.items))
	copy(out, l.items)
	return out
}

// SubscribeChanges registers a structural change handler.
func (l *List) SubscribeChanges(h ChangeHandler) func() {
	l.nextSubID++
	id := l.nextSubID
	l.changes = append(l.changes, changeSub{id: id, h: h})
	return func() {
		for i, s := range l.changes {
			if s.id == id {
				l.changes = append(l.changes[:i], l.changes[i+1:]...)
				return
			}
		}
	}
}

// SubscribeItemChanges registers an item field change handler.
func (l *List) SubscribeItemChanges(h ItemChangeHandler) func() {
	l.nextSubID++
	id := l.nextSubID
	l.itemSubs = append(l.itemSubs, itemSub{id: id, h: h})
	return func() {
		for i, s := range l.itemSubs {
			if s.id == id {
				l.itemSubs = append(l.itemSubs[:i], l.itemSubs[i+1:]...)
				return
			}
		}
	}
}

// SubscriberCount returns the number of structural and item subscribers.
func (l *List) SubscriberCount() (changes, items int) {
	return len(l.changes), len(l.itemSubs)
}

// Append adds item at the end.
func (l *List) Append(item interface{}) error {
	return l.Insert(len(l.items), item)
}

// Insert places item at index i (0 <= i <= Len).
func (l *List) Insert(i int, item interface{}) error {
	if i < 0 || i > len(l.items) {
		return fmt.Errorf("%w: insert at %d of %d", ErrIndexOutOfRange, i, len(l.items))
	}
	l.items = append(l.items, nil)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = item
	return l.Publish(ChangeEvent{
		Action:        ActionAdd,
		NewStartIndex: i,
		OldStartIndex: -1,
		NewItems:      []interface{}{item},
	})
}

// RemoveAt removes the item at index i.
func (l *List) RemoveAt(i int) error {
	if i < 0 || i >= len(l.items) {
		return fmt.Errorf("%w: remove at %d of %d", ErrIndexOutOfRange, i, len(l.items))
	}
	item := l.items[i]
	l.items = append(l.items[:i], l.items[i+1:]...)
	return l.Publish(ChangeEvent{
		Action:        ActionRemove,
		NewStartIndex: -1,
		OldStartIndex: i,
		OldItems:      []interface{}{item},
	})
}

// Remove removes the first occurrence of item. Returns false if absent.
func (l *List) Remove(item interface{}) (bool, error) {
	i := IndexOf(l, item)
	if i < 0 {
		return false, nil
	}
	return true, l.RemoveAt(i)
}

// Move moves the item at from in front of the item currently at to
// (0 <= to <= Len). Moves that leave the item in place are ignored.
func (l *List) Move(from, to int) error {
	if from < 0 || from >= len(l.items) || to < 0 || to > len(l.items) {
		return fmt.Errorf("%w: move %d to %d of %d", ErrIndexOutOfRange, from, to, len(l.items))
	}
	if to == from || to == from+1 {
		return nil
	}
	item := l.items[from]
	l.items = append(l.items[:from], l.items[from+1:]...)
	dst := to
	if from < to {
		dst--
	}
	l.items = append(l.items, nil)
	copy(l.items[dst+1:], l.items[dst:])
	l.items[dst] = item
	return l.Publish(ChangeEvent{
		Action:        ActionMove,
		NewStartIndex: to,
		OldStartIndex: from,
		NewItems:      []interface{}{item},
		OldItems:      []interface{}{item},
	})
}

// Replace overwrites len(items) items starting at index i.
func (l *List) Replace(i int, items ...interface{}) error {
	if i < 0 || i+len(items) > len(l.items) {
		return fmt.Errorf("%w: replace %d items at %d of %d", ErrIndexOutOfRange, len(items), i, len(l.items))
	}
	old := make([]interface{}, len(items))
	copy(old, l.items[i:i+len(items)])
	copy(l.items[i:], items)
	return l.Publish(ChangeEvent{
		Action:        ActionReplace,
		NewStartIndex: i,
		OldStartIndex: i,
		NewItems:      append([]interface{}(nil), items...),
		OldItems:      old,
	})
}

// Reset replaces the whole content.
func (l *List) Reset(items []interface{}) error {
	l.items = append([]interface{}(nil), items...)
	return l.Publish(ChangeEvent{Action: ActionReset, NewStartIndex: -1, OldStartIndex: -1})
}

// Publish delivers ev to the structural subscribers without mutating the list.
func (l *List) Publish(ev ChangeEvent) error {
	subs := make([]changeSub, len(l.changes))
	copy(subs, l.changes)
	var errs []error
	for _, s := range subs {
		if err := s.h(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NotifyItemChanged reports that field of item changed in place.
func (l *List) NotifyItemChanged(item interface{}, field string) error {
	subs := make([]itemSub, len(l.itemSubs))
	copy(subs, l.itemSubs)
	var errs []error
	for _, s := range subs {
		if err := s.h(item, field); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
