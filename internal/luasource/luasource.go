// Package luasource drives a source.List from a Lua script.
//
// Scripts see a global "source" table:
//
//	source.add(item)            append a table
//	source.insert(i, item)      insert before position i (1-based)
//	source.remove(i)            remove position i
//	source.move(from, to)       move position from in front of position to
//	source.set(i, item)         replace position i
//	source.reset([items])       replace the whole content
//	source.changed(item, [f])   report that field f of item changed in place
//	source.len()                number of items
//
// Items are Lua tables wrapped in *Item, which implements accessor.Fielder.
package luasource

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/zot/seriesdata/internal/source"
)

// Logger receives verbosity-gated diagnostics.
type Logger interface {
	Log(level int, format string, args ...interface{})
}

// Item is a Lua table seen as a series item. The same table always maps to
// the same *Item, so identity lookups find items the script mutated.
type Item struct {
	table *lua.LTable
}

// Table returns the wrapped table.
func (it *Item) Table() *lua.LTable {
	return it.table
}

// Field returns the Go value of a string-keyed table field.
func (it *Item) Field(name string) (interface{}, bool) {
	v := it.table.RawGetString(name)
	if v == lua.LNil {
		return nil, false
	}
	return ToGo(v), true
}

// ToGo converts a Lua value. Array tables become []interface{}, other
// tables map[string]interface{}, skipping keys that start with "_".
func ToGo(val lua.LValue) interface{} {
	switch v := val.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if n := v.Len(); n > 0 {
			arr := make([]interface{}, n)
			for i := 1; i <= n; i++ {
				arr[i-1] = ToGo(v.RawGetInt(i))
			}
			return arr
		}
		m := make(map[string]interface{})
		v.ForEach(func(key, value lua.LValue) {
			if ks, ok := key.(lua.LString); ok && !strings.HasPrefix(string(ks), "_") {
				m[string(ks)] = ToGo(value)
			}
		})
		return m
	}
	return nil
}

// Script is a Lua state bound to one list. It is not safe for concurrent use.
type Script struct {
	L     *lua.LState
	list  *source.List
	items map[*lua.LTable]*Item
	log   Logger
}

// New creates a Lua state whose "source" table mutates list. log may be nil.
func New(list *source.List, log Logger) *Script {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	s := &Script{L: L, list: list, items: make(map[*lua.LTable]*Item), log: log}
	s.registerSourceModule()
	return s
}

// List returns the list the script mutates.
func (s *Script) List() *source.List {
	return s.list
}

// Close releases the Lua state.
func (s *Script) Close() {
	s.L.Close()
}

// DoFile runs a script file.
func (s *Script) DoFile(path string) error {
	s.logf(2, "luasource: running %s", path)
	if err := s.L.DoFile(path); err != nil {
		return fmt.Errorf("lua %s: %w", path, err)
	}
	return nil
}

// DoString runs a chunk of Lua code.
func (s *Script) DoString(code string) error {
	if err := s.L.DoString(code); err != nil {
		return fmt.Errorf("lua: %w", err)
	}
	return nil
}

// Wrap returns the item of a table, creating it on first use.
func (s *Script) Wrap(tbl *lua.LTable) *Item {
	if it, ok := s.items[tbl]; ok {
		return it
	}
	it := &Item{table: tbl}
	s.items[tbl] = it
	return it
}

// itemAt returns the item at 0-based index i, or nil.
func (s *Script) itemAt(i int) *Item {
	if i < 0 || i >= s.list.Len() {
		return nil
	}
	it, _ := s.list.At(i).(*Item)
	return it
}

// forget drops the table of it once it no longer appears in the list.
func (s *Script) forget(it *Item) {
	if it != nil && source.IndexOf(s.list, it) < 0 {
		delete(s.items, it.table)
	}
}

func (s *Script) logf(level int, format string, args ...interface{}) {
	if s.log != nil {
		s.log.Log(level, format, args...)
	}
}

// check raises a Lua error for a failed list operation.
func check(L *lua.LState, err error) int {
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

func (s *Script) registerSourceModule() {
	L := s.L
	mod := L.NewTable()
	L.SetGlobal("source", mod)

	L.SetField(mod, "add", L.NewFunction(func(L *lua.LState) int {
		return check(L, s.list.Append(s.Wrap(L.CheckTable(1))))
	}))

	L.SetField(mod, "insert", L.NewFunction(func(L *lua.LState) int {
		i := L.CheckInt(1)
		return check(L, s.list.Insert(i-1, s.Wrap(L.CheckTable(2))))
	}))

	L.SetField(mod, "remove", L.NewFunction(func(L *lua.LState) int {
		i := L.CheckInt(1)
		old := s.itemAt(i - 1)
		err := s.list.RemoveAt(i - 1)
		s.forget(old)
		return check(L, err)
	}))

	L.SetField(mod, "move", L.NewFunction(func(L *lua.LState) int {
		return check(L, s.list.Move(L.CheckInt(1)-1, L.CheckInt(2)-1))
	}))

	L.SetField(mod, "set", L.NewFunction(func(L *lua.LState) int {
		i := L.CheckInt(1)
		old := s.itemAt(i - 1)
		err := s.list.Replace(i-1, s.Wrap(L.CheckTable(2)))
		s.forget(old)
		return check(L, err)
	}))

	L.SetField(mod, "reset", L.NewFunction(func(L *lua.LState) int {
		var items []interface{}
		s.items = make(map[*lua.LTable]*Item)
		if tbl := L.OptTable(1, nil); tbl != nil {
			for i := 1; i <= tbl.Len(); i++ {
				if t, ok := tbl.RawGetInt(i).(*lua.LTable); ok {
					items = append(items, s.Wrap(t))
				}
			}
		}
		return check(L, s.list.Reset(items))
	}))

	L.SetField(mod, "changed", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		field := L.OptString(2, "")
		it, ok := s.items[tbl]
		if !ok {
			s.logf(3, "luasource: changed() on a table that is not an item")
			return 0
		}
		return check(L, s.list.NotifyItemChanged(it, field))
	}))

	L.SetField(mod, "len", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(s.list.Len()))
		return 1
	}))
}
