package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
)

// ErrUnknownSeries is returned by backends for names they do not serve.
var ErrUnknownSeries = errors.New("unknown series")

// MessageSender sends protocol messages to a connection.
type MessageSender interface {
	Send(connectionID string, msg *Message) error
}

// Backend serves series state. Calls arrive on connection goroutines; the
// backend serializes access to the series itself.
type Backend interface {
	List() []SeriesInfo
	Snapshot(name string) (*Snapshot, error)
	Refresh(name string) error
}

// Handler processes protocol messages.
type Handler struct {
	backend   Backend
	watches   *Watches
	sender    MessageSender
	verbosity int
}

// NewHandler creates a new protocol handler.
func NewHandler(backend Backend, watches *Watches, sender MessageSender) *Handler {
	return &Handler{
		backend: backend,
		watches: watches,
		sender:  sender,
	}
}

// SetVerbosity sets the verbosity level for message logging.
func (h *Handler) SetVerbosity(level int) {
	h.verbosity = level
}

// Watches returns the handler's watch table.
func (h *Handler) Watches() *Watches {
	return h.watches
}

// HandleMessage processes an incoming protocol message. Request failures
// are reported to the connection as error messages; the returned error is
// for messages that could not be decoded at all.
func (h *Handler) HandleMessage(connectionID string, msg *Message) error {
	if h.verbosity >= 2 {
		log.Printf("[v2] Message: type=%s from=%s", msg.Type, connectionID)
	}

	switch msg.Type {
	case MsgSubscribe, MsgUnsubscribe:
		var sub SubscribeMessage
		if err := json.Unmarshal(msg.Data, &sub); err != nil {
			return h.sendError(connectionID, "", "bad-message", err)
		}
		for _, name := range sub.Series {
			if msg.Type == MsgUnsubscribe {
				h.watches.Unwatch(name, connectionID)
				continue
			}
			snap, err := h.backend.Snapshot(name)
			if err != nil {
				if err := h.sendError(connectionID, name, "not-found", err); err != nil {
					return err
				}
				continue
			}
			h.watches.Watch(name, connectionID)
			if err := h.send(connectionID, MsgSnapshot, snap); err != nil {
				return err
			}
		}
		return nil

	case MsgList:
		return h.send(connectionID, MsgList, ListResponse{Series: h.backend.List()})

	case MsgRefresh:
		var ref RefreshMessage
		if err := json.Unmarshal(msg.Data, &ref); err != nil {
			return h.sendError(connectionID, "", "bad-message", err)
		}
		if err := h.backend.Refresh(ref.Series); err != nil {
			return h.sendError(connectionID, ref.Series, "refresh-failed", err)
		}
		return nil

	default:
		return h.sendError(connectionID, "", "bad-message", fmt.Errorf("unknown message type: %s", msg.Type))
	}
}

// Broadcast sends the current snapshot of each named series to its watchers.
func (h *Handler) Broadcast(names []string) {
	for _, name := range names {
		conns := h.watches.Watchers(name)
		if len(conns) == 0 {
			continue
		}
		snap, err := h.backend.Snapshot(name)
		if err != nil {
			log.Printf("[v0] Broadcast %s: %v", name, err)
			continue
		}
		msg, err := NewMessage(MsgSnapshot, snap)
		if err != nil {
			log.Printf("[v0] Broadcast %s: %v", name, err)
			continue
		}
		for _, conn := range conns {
			if err := h.sender.Send(conn, msg); err != nil && h.verbosity >= 1 {
				log.Printf("[v1] Send to %s failed: %v", conn, err)
			}
		}
		if h.verbosity >= 3 {
			log.Printf("[v3] Snapshot %s sent to %d connections", name, len(conns))
		}
	}
}

func (h *Handler) send(connectionID string, t MessageType, data interface{}) error {
	msg, err := NewMessage(t, data)
	if err != nil {
		return err
	}
	return h.sender.Send(connectionID, msg)
}

func (h *Handler) sendError(connectionID, series, code string, err error) error {
	return h.send(connectionID, MsgError, ErrorMessage{Series: series, Code: code, Description: err.Error()})
}
