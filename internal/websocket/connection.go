// Package websocket owns the transport layer: upgrading HTTP requests,
// wrapping connections behind a single-writer outbound queue, and feeding
// inbound frames to the session protocol handler.
package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Connection wraps a gorilla websocket connection behind a bounded outbound
// queue drained by a single writer goroutine. WebSocket writes must be
// serialized; funneling every frame through the queue also lets Send stay
// non-blocking so a slow peer never stalls a broadcast.
type Connection struct {
	id        string
	conn      *websocket.Conn
	sendCh    chan []byte
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	writeTimeout time.Duration
}

// NewConnection wraps conn and starts its write pump. bufferSize bounds the
// outbound queue; frames beyond it are dropped by Send.
func NewConnection(conn *websocket.Conn, bufferSize int, writeTimeout time.Duration) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		id:           uuid.NewString(),
		conn:         conn,
		sendCh:       make(chan []byte, bufferSize),
		ctx:          ctx,
		cancel:       cancel,
		writeTimeout: writeTimeout,
	}

	go c.writePump()

	return c
}

// ID returns the connection's unique identifier.
func (c *Connection) ID() string {
	return c.id
}

// Send enqueues one serialized envelope for delivery. It never blocks: a
// full queue or closed connection drops the frame and reports an error, so
// the caller can isolate this peer without retrying.
func (c *Connection) Send(data []byte) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.sendCh <- data:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		return ErrSendBufferFull
	}
}

// writePump is the connection's single writer goroutine. When it exits,
// whether on write failure or cancellation, it closes the connection so
// subsequent Sends fail fast instead of filling a queue nobody drains.
func (c *Connection) writePump() {
	defer func() { _ = c.Close() }()

	for {
		select {
		case data := <-c.sendCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// Close tears down the transport and stops the write pump. Idempotent.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}
