// Package protocol defines the messages exchanged with renderer clients and
// the handler that serves them.
//
// Clients subscribe to series by name and receive a snapshot of the
// series' columns each time its area changes.
package protocol

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/zot/seriesdata/internal/series"
	"github.com/zot/seriesdata/internal/value"
)

// MessageType identifies the type of protocol message.
type MessageType string

const (
	// Client requests
	MsgSubscribe   MessageType = "subscribe"
	MsgUnsubscribe MessageType = "unsubscribe"
	MsgList        MessageType = "list"
	MsgRefresh     MessageType = "refresh"

	// Server messages
	MsgSnapshot MessageType = "snapshot"
	MsgError    MessageType = "error"
)

// Message is the base protocol message structure.
type Message struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// SubscribeMessage names the series a connection starts or stops watching.
type SubscribeMessage struct {
	Series []string `json:"series"`
}

// RefreshMessage asks for a full pass over a series' source.
type RefreshMessage struct {
	Series string `json:"series"`
}

// Number is a float64 that encodes NaN and infinities as null.
type Number float64

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

// UnmarshalJSON implements json.Unmarshaler. null decodes as NaN.
func (n *Number) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = Number(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

func numbers(vals []float64) []Number {
	out := make([]Number, len(vals))
	for i, v := range vals {
		out[i] = Number(v)
	}
	return out
}

// Snapshot is the column state of one series.
type Snapshot struct {
	Series  string      `json:"series"`
	Handle  int64       `json:"handle"`
	XType   string      `json:"xType"`
	X       []Number    `json:"x,omitempty"`
	XLabels []string    `json:"xLabels,omitempty"`
	XTimes  []time.Time `json:"xTimes,omitempty"`
	Index   []Number    `json:"index"`
	YPaths  []string    `json:"yPaths"`
	Grouped bool        `json:"grouped,omitempty"`
	Y       [][]Number  `json:"y"`
	Points  int         `json:"points"`
	Linear  bool        `json:"linear"`
}

// SnapshotOf copies the columns of d.
func SnapshotOf(d *series.Dependent) *Snapshot {
	s := &Snapshot{
		Series:  d.Name,
		XType:   d.XValueType.String(),
		Index:   numbers(d.XIndexedList),
		YPaths:  append([]string(nil), d.YPaths...),
		Grouped: d.IsGroupedY,
		Y:       make([][]Number, len(d.YDoubleValues)),
		Points:  d.PointsCount,
		Linear:  d.IsLinearData,
	}
	if h, ok := d.Handle(); ok {
		s.Handle = int64(h)
	}
	switch d.XValueType {
	case value.KindString:
		s.XLabels = append([]string(nil), d.XStringValues...)
	case value.KindDateTime:
		s.XTimes = append([]time.Time(nil), d.XDateTimeValues...)
	default:
		s.X = numbers(d.XDoubleValues)
	}
	for i, col := range d.YDoubleValues {
		s.Y[i] = numbers(col)
	}
	return s
}

// SeriesInfo summarizes one series for list responses.
type SeriesInfo struct {
	Name   string   `json:"name"`
	Handle int64    `json:"handle"`
	XPath  string   `json:"xPath"`
	YPaths []string `json:"yPaths"`
	XType  string   `json:"xType"`
	Points int      `json:"points"`
	Linear bool     `json:"linear"`
}

// InfoOf summarizes d.
func InfoOf(d *series.Dependent) SeriesInfo {
	info := SeriesInfo{
		Name:   d.Name,
		XPath:  d.XPath,
		YPaths: append([]string(nil), d.YPaths...),
		XType:  d.XValueType.String(),
		Points: d.PointsCount,
		Linear: d.IsLinearData,
	}
	if h, ok := d.Handle(); ok {
		info.Handle = int64(h)
	}
	return info
}

// ListResponse lists the available series.
type ListResponse struct {
	Series []SeriesInfo `json:"series"`
}

// ErrorMessage represents an error response.
type ErrorMessage struct {
	Series      string `json:"series,omitempty"`
	Code        string `json:"code"`        // One-word error code (e.g., "not-found", "bad-message")
	Description string `json:"description"` // Human-readable error description
}

// ParseMessage parses a raw JSON message into a typed message.
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ParseMessages parses raw JSON that may be a single message or a batched array.
func ParseMessages(data []byte) ([]*Message, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] == '[' {
		var msgs []Message
		if err := json.Unmarshal(data, &msgs); err != nil {
			return nil, err
		}
		result := make([]*Message, len(msgs))
		for i := range msgs {
			result[i] = &msgs[i]
		}
		return result, nil
	}
	msg, err := ParseMessage(data)
	if err != nil {
		return nil, err
	}
	return []*Message{msg}, nil
}

// NewMessage creates a new message with the given type and data.
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var raw json.RawMessage
	if data != nil {
		var err error
		raw, err = json.Marshal(data)
		if err != nil {
			return nil, err
		}
	}
	return &Message{
		Type: msgType,
		Data: raw,
	}, nil
}

// Encode serializes a message to JSON.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}
