package protocol

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/zot/seriesdata/internal/series"
	"github.com/zot/seriesdata/internal/source"
)

type point struct {
	X, Y float64
}

// fakeSender records sent messages per connection.
type fakeSender struct {
	mu   sync.Mutex
	sent map[string][]*Message
}

func newFakeSender() *fakeSender {
	return &fakeSender{sent: make(map[string][]*Message)}
}

func (s *fakeSender) Send(connectionID string, msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent[connectionID] = append(s.sent[connectionID], msg)
	return nil
}

func (s *fakeSender) types(connectionID string) []MessageType {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []MessageType
	for _, m := range s.sent[connectionID] {
		out = append(out, m.Type)
	}
	return out
}

// fakeBackend serves one bound dependent.
type fakeBackend struct {
	d         *series.Dependent
	refreshed int
}

func (b *fakeBackend) List() []SeriesInfo { return []SeriesInfo{InfoOf(b.d)} }

func (b *fakeBackend) Snapshot(name string) (*Snapshot, error) {
	if name != b.d.Name {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSeries, name)
	}
	return SnapshotOf(b.d), nil
}

func (b *fakeBackend) Refresh(name string) error {
	if name != b.d.Name {
		return ErrUnknownSeries
	}
	b.refreshed++
	return nil
}

func boundDependent(t *testing.T) (*series.Dependent, *source.List) {
	t.Helper()
	src := source.NewList(&point{1, 10}, &point{2, 20})
	d := &series.Dependent{Name: "s", XPath: "X", YPaths: []string{"Y", "Missing"}}
	if _, err := series.NewRegistry(nil).Bind(src, d); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	return d, src
}

// TestNumberJSON verifies NaN encodes as null and back
func TestNumberJSON(t *testing.T) {
	data, err := json.Marshal([]Number{1.5, Number(math.NaN()), Number(math.Inf(1))})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != "[1.5,null,null]" {
		t.Errorf("got %s", data)
	}

	var back []Number
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back[0] != 1.5 || !math.IsNaN(float64(back[1])) {
		t.Errorf("got %v", back)
	}
}

// TestSnapshotOf verifies the snapshot copies columns and encodes
func TestSnapshotOf(t *testing.T) {
	d, _ := boundDependent(t)
	snap := SnapshotOf(d)

	if snap.XType != "Double" || snap.Points != 2 || !snap.Linear {
		t.Errorf("unexpected header %+v", snap)
	}
	if !reflect.DeepEqual(snap.X, []Number{1, 2}) {
		t.Errorf("X = %v", snap.X)
	}
	if len(snap.Y) != 2 || !math.IsNaN(float64(snap.Y[1][0])) {
		t.Errorf("Y = %v", snap.Y)
	}

	msg, err := NewMessage(MsgSnapshot, snap)
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	if _, err := msg.Encode(); err != nil {
		t.Errorf("Encode: %v", err)
	}
}

// TestParseMessages verifies single and batched formats
func TestParseMessages(t *testing.T) {
	msgs, err := ParseMessages([]byte(`{"type":"list"}`))
	if err != nil || len(msgs) != 1 || msgs[0].Type != MsgList {
		t.Errorf("single: %v %v", msgs, err)
	}
	msgs, err = ParseMessages([]byte(`[{"type":"list"},{"type":"refresh","data":{"series":"s"}}]`))
	if err != nil || len(msgs) != 2 || msgs[1].Type != MsgRefresh {
		t.Errorf("batch: %v %v", msgs, err)
	}
	if msgs, err := ParseMessages(nil); msgs != nil || err != nil {
		t.Errorf("empty: %v %v", msgs, err)
	}
	if _, err := ParseMessages([]byte(`{`)); err == nil {
		t.Error("expected error for bad JSON")
	}
}

// TestHandlerSubscribe verifies subscribe sends a snapshot and broadcast reaches watchers
func TestHandlerSubscribe(t *testing.T) {
	d, src := boundDependent(t)
	sender := newFakeSender()
	h := NewHandler(&fakeBackend{d: d}, NewWatches(), sender)

	msg, _ := NewMessage(MsgSubscribe, SubscribeMessage{Series: []string{"s", "nope"}})
	if err := h.HandleMessage("c1", msg); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if got := sender.types("c1"); !reflect.DeepEqual(got, []MessageType{MsgSnapshot, MsgError}) {
		t.Errorf("sent %v", got)
	}
	if got := h.Watches().Watched("c1"); !reflect.DeepEqual(got, []string{"s"}) {
		t.Errorf("watched %v", got)
	}

	if err := src.Append(&point{3, 30}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	h.Broadcast([]string{"s", "other"})
	sent := sender.sent["c1"]
	var snap Snapshot
	if err := json.Unmarshal(sent[len(sent)-1].Data, &snap); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if snap.Points != 3 {
		t.Errorf("broadcast snapshot has %d points", snap.Points)
	}

	msg, _ = NewMessage(MsgUnsubscribe, SubscribeMessage{Series: []string{"s"}})
	_ = h.HandleMessage("c1", msg)
	before := len(sender.sent["c1"])
	h.Broadcast([]string{"s"})
	if len(sender.sent["c1"]) != before {
		t.Error("unsubscribed connection still receives snapshots")
	}
}

// TestHandlerListRefresh verifies list and refresh requests
func TestHandlerListRefresh(t *testing.T) {
	d, _ := boundDependent(t)
	backend := &fakeBackend{d: d}
	sender := newFakeSender()
	h := NewHandler(backend, NewWatches(), sender)

	_ = h.HandleMessage("c", &Message{Type: MsgList})
	var list ListResponse
	if err := json.Unmarshal(sender.sent["c"][0].Data, &list); err != nil || len(list.Series) != 1 || list.Series[0].Name != "s" {
		t.Errorf("list: %+v %v", list, err)
	}

	msg, _ := NewMessage(MsgRefresh, RefreshMessage{Series: "s"})
	_ = h.HandleMessage("c", msg)
	if backend.refreshed != 1 {
		t.Errorf("refreshed %d times", backend.refreshed)
	}

	msg, _ = NewMessage(MsgRefresh, RefreshMessage{Series: "x"})
	_ = h.HandleMessage("c", msg)
	_ = h.HandleMessage("c", &Message{Type: "bogus"})
	if got := sender.types("c"); !reflect.DeepEqual(got, []MessageType{MsgList, MsgError, MsgError}) {
		t.Errorf("sent %v", got)
	}
}

// TestWatches verifies active transitions and disconnect cleanup
func TestWatches(t *testing.T) {
	w := NewWatches()
	var events []string
	w.OnActiveChanged = func(s string, active bool) {
		events = append(events, fmt.Sprintf("%s:%v", s, active))
	}

	w.Watch("a", "c1")
	if w.Watch("a", "c1") {
		t.Error("duplicate watch reported as new")
	}
	w.Watch("a", "c2")
	w.Watch("b", "c1")
	w.Unwatch("a", "c2")
	w.UnwatchAll("c1")

	want := []string{"a:true", "b:true", "a:false", "b:false"}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
	if len(w.Watchers("a")) != 0 {
		t.Error("watchers left after UnwatchAll")
	}
}

// TestAreaBatcherCoalesces verifies repeated marks flush once in first-mark order
func TestAreaBatcherCoalesces(t *testing.T) {
	var got [][]string
	b := NewAreaBatcher(time.Hour, func(names []string) { got = append(got, names) })

	b.Mark("b")
	b.Mark("a")
	b.Mark("b")
	if b.PendingCount() != 2 {
		t.Errorf("pending = %d", b.PendingCount())
	}
	b.FlushNow()
	b.FlushNow()

	if !reflect.DeepEqual(got, [][]string{{"b", "a"}}) {
		t.Errorf("flushed %v", got)
	}
	if b.Batches() != 1 {
		t.Errorf("batches = %d", b.Batches())
	}

	b.Mark("c")
	b.Clear()
	b.FlushNow()
	if len(got) != 1 {
		t.Error("cleared names were flushed")
	}
}

// TestAreaBatcherTimer verifies the debounce timer flushes
func TestAreaBatcherTimer(t *testing.T) {
	done := make(chan []string, 1)
	b := NewAreaBatcher(5*time.Millisecond, func(names []string) { done <- names })
	b.Mark("s")
	select {
	case names := <-done:
		if !reflect.DeepEqual(names, []string{"s"}) {
			t.Errorf("flushed %v", names)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timer never flushed")
	}
}
