package server

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/zot/seriesdata/internal/config"
	"github.com/zot/seriesdata/internal/protocol"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// connection serializes writes; gorilla connections allow one writer at a time.
type connection struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *connection) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WebSocketEndpoint handles WebSocket connections.
type WebSocketEndpoint struct {
	config      *config.Config
	connections map[string]*connection // connectionID -> conn
	handler     *protocol.Handler
	mu          sync.RWMutex
}

// NewWebSocketEndpoint creates a new WebSocket endpoint.
func NewWebSocketEndpoint(cfg *config.Config) *WebSocketEndpoint {
	return &WebSocketEndpoint{
		config:      cfg,
		connections: make(map[string]*connection),
	}
}

// SetHandler sets the protocol handler incoming messages go to.
func (ws *WebSocketEndpoint) SetHandler(h *protocol.Handler) {
	ws.handler = h
}

// Log logs a message via the config.
func (ws *WebSocketEndpoint) Log(level int, format string, args ...interface{}) {
	ws.config.Log(level, format, args...)
}

// HandleWebSocket handles incoming WebSocket connections.
func (ws *WebSocketEndpoint) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.Log(0, "WebSocket upgrade failed: %v", err)
		return
	}

	connectionID := generateConnectionID()

	ws.mu.Lock()
	ws.connections[connectionID] = &connection{conn: conn}
	ws.mu.Unlock()

	ws.Log(1, "WebSocket connected: conn=%s", connectionID)

	go ws.readPump(connectionID, conn)
}

// readPump reads messages from a WebSocket connection.
func (ws *WebSocketEndpoint) readPump(connectionID string, conn *websocket.Conn) {
	defer func() {
		ws.onDisconnect(connectionID)
		conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				ws.Log(0, "WebSocket error: %v", err)
			}
			break
		}
		ws.processMessage(connectionID, message)
	}
}

// processMessage handles one message or a batched array.
func (ws *WebSocketEndpoint) processMessage(connectionID string, message []byte) {
	// Recover from panics to prevent server crashes
	defer func() {
		if r := recover(); r != nil {
			ws.Log(0, "PANIC in processMessage: %v", r)
		}
	}()

	msgs, err := protocol.ParseMessages(message)
	if err != nil {
		ws.Log(0, "Failed to parse message: %v", err)
		return
	}
	for _, msg := range msgs {
		if err := ws.handler.HandleMessage(connectionID, msg); err != nil {
			ws.Log(0, "Failed to handle message: %v", err)
		}
	}
}

// onDisconnect handles connection close.
func (ws *WebSocketEndpoint) onDisconnect(connectionID string) {
	ws.mu.Lock()
	delete(ws.connections, connectionID)
	ws.mu.Unlock()

	ws.Log(1, "WebSocket disconnected: conn=%s", connectionID)
	if ws.handler != nil {
		ws.handler.Watches().UnwatchAll(connectionID)
	}
}

// Send sends a message to a specific connection. Unknown connections are ignored.
func (ws *WebSocketEndpoint) Send(connectionID string, msg *protocol.Message) error {
	ws.mu.RLock()
	c, ok := ws.connections[connectionID]
	ws.mu.RUnlock()

	if !ok {
		return nil
	}

	msgType := strings.ToUpper(string(msg.Type))
	if ws.config.Verbosity() >= 4 {
		ws.Log(4, "[OUT] %s: to=%s data=%s", msgType, connectionID, string(msg.Data))
	} else {
		ws.Log(2, "[OUT] %s: to=%s", msgType, connectionID)
	}

	data, err := msg.Encode()
	if err != nil {
		return err
	}
	return c.write(data)
}

// ConnectionCount returns the number of open connections.
func (ws *WebSocketEndpoint) ConnectionCount() int {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return len(ws.connections)
}

func generateConnectionID() string {
	bytes := make([]byte, 16)
	rand.Read(bytes)
	return "conn-" + hex.EncodeToString(bytes)
}
