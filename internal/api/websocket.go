package api

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rpgmapper/backend/internal/models"
	"github.com/rpgmapper/backend/internal/session"
)

// WebSocket message types for the event stream
const (
	// Client -> Server messages
	MsgTypePing = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeEvent     = "event"
	MsgTypeClosed    = "closed"
	MsgTypePong      = "pong"
)

const (
	// eventBuffer is the number of events queued per connection before
	// further events are dropped.
	eventBuffer = 256
	// keepAliveInterval is how often the connection is pinged and the
	// session checked for removal.
	keepAliveInterval = 30 * time.Second
	writeWait         = 10 * time.Second
)

// WebSocket message structure
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WebSocketHandler streams session change events to connected views
type WebSocketHandler struct {
	sessionMgr     *session.Manager
	upgrader       websocket.Upgrader
	maxMessageSize int64
}

// NewWebSocketHandler creates a new event stream handler. maxMessageSizeKB
// limits client messages; zero means 64KB.
func NewWebSocketHandler(sessionMgr *session.Manager, maxMessageSizeKB int) *WebSocketHandler {
	if maxMessageSizeKB <= 0 {
		maxMessageSizeKB = 64
	}
	return &WebSocketHandler{
		sessionMgr: sessionMgr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
		},
		maxMessageSize: int64(maxMessageSizeKB) * 1024,
	}
}

// HandleEvents upgrades the connection and forwards every change event of
// the session until the client disconnects or the session is discarded.
func (wsh *WebSocketHandler) HandleEvents(c echo.Context) error {
	s, err := lookupSession(c, wsh.sessionMgr)
	if err != nil {
		return err
	}

	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()
	ws.SetReadLimit(wsh.maxMessageSize)

	// Listeners run while the session is locked, so they must never block
	events := make(chan models.ChangeEvent, eventBuffer)
	var dropped atomic.Int64
	unsubscribe := s.Subscribe(func(ev models.ChangeEvent) {
		select {
		case events <- ev:
		default:
			dropped.Add(1)
		}
	})
	defer unsubscribe()

	fmt.Printf("[WS] Client connected to session %s\n", shortID(s.ID))
	wsh.sendMessage(ws, WSMessage{
		Type:      MsgTypeConnected,
		ID:        s.ID,
		Payload:   mustJSON(sessionInfo(wsh.sessionMgr, s)),
		Timestamp: time.Now().UnixMilli(),
	})

	// gorilla allows one concurrent writer; the reader only signals
	pings := make(chan struct{}, 1)
	done := make(chan struct{})
	go wsh.readLoop(ws, pings, done)

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-events:
			if err := wsh.sendMessage(ws, WSMessage{
				Type:      MsgTypeEvent,
				ID:        s.ID,
				Payload:   mustJSON(ev),
				Timestamp: time.Now().UnixMilli(),
			}); err != nil {
				return nil
			}
		case <-pings:
			wsh.sendMessage(ws, WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()})
		case <-ticker.C:
			if _, ok := wsh.sessionMgr.GetSession(s.ID); !ok {
				wsh.sendMessage(ws, WSMessage{Type: MsgTypeClosed, ID: s.ID, Timestamp: time.Now().UnixMilli()})
				fmt.Printf("[WS] Session %s was discarded, closing stream\n", shortID(s.ID))
				return nil
			}
			wsh.sessionMgr.TouchSession(s.ID)
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case <-done:
			if n := dropped.Load(); n > 0 {
				fmt.Printf("[WS] Dropped %d events for slow client of session %s\n", n, shortID(s.ID))
			}
			fmt.Printf("[WS] Client disconnected from session %s\n", shortID(s.ID))
			return nil
		}
	}
}

// readLoop consumes client messages until the connection fails.
func (wsh *WebSocketHandler) readLoop(ws *websocket.Conn, pings chan<- struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				fmt.Printf("[WS] Connection error: %v\n", err)
			}
			return
		}
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == MsgTypePing {
			select {
			case pings <- struct{}{}:
			default:
			}
		}
	}
}

// Helper methods

func (wsh *WebSocketHandler) sendMessage(ws *websocket.Conn, msg WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		fmt.Printf("[WS] Failed to send message: %v\n", err)
		return err
	}
	return nil
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}

// shortID truncates an ID for logging
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
