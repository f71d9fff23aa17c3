package websocket

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"realchat/internal/session"
)

// upgrader accepts any origin: the chat is open and authentication is out of
// scope, so origin checking is left to deployments that front this with a
// proxy.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	HandshakeTimeout: 10 * time.Second,
}

// Handler upgrades HTTP requests to WebSocket connections and runs one read
// loop per connection. Each loop feeds frames to the session handler
// sequentially, so a single connection's envelopes are processed in arrival
// order while different connections proceed concurrently.
type Handler struct {
	sessions     *session.Handler
	bufferSize   int
	writeTimeout time.Duration
}

// NewHandler creates a WebSocket handler that dispatches to sessions.
func NewHandler(sessions *session.Handler, bufferSize int, writeTimeout time.Duration) *Handler {
	return &Handler{
		sessions:     sessions,
		bufferSize:   bufferSize,
		writeTimeout: writeTimeout,
	}
}

// HandleWebSocket upgrades the request and hands the connection to its read
// loop. The connection is owned by that goroutine until close.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	wsConn := NewConnection(conn, h.bufferSize, h.writeTimeout)
	log.Printf("websocket connected: %s (%s)", wsConn.ID(), r.RemoteAddr)

	go h.readLoop(wsConn)
}

// readLoop processes inbound frames until the connection closes or errors.
// Transport errors are treated as close: same cleanup, nothing surfaced to
// the remote side.
func (h *Handler) readLoop(c *Connection) {
	defer func() {
		h.sessions.HandleClose(c)
		_ = c.Close()
		log.Printf("websocket disconnected: %s", c.ID())
	}()

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("websocket read error on %s: %v", c.ID(), err)
			}
			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		h.sessions.HandleEnvelope(context.Background(), c, data)
	}
}
