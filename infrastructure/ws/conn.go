package ws

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Conn adapts a gorilla websocket connection to domain.Transport.
//
// A single writer goroutine drains the send channel, because gorilla
// permits at most one concurrent writer. Ping goes through WriteControl,
// which is documented safe to call concurrently with the write methods.
// Separating the read and write sides avoids head-of-line blocking when a
// peer is slow to consume.
type Conn struct {
	ws     *websocket.Conn
	send   chan []byte
	done   chan struct{}
	closed atomic.Bool
	once   sync.Once
}

func newConn(ws *websocket.Conn, bufferSize int) *Conn {
	return &Conn{
		ws:   ws,
		send: make(chan []byte, bufferSize),
		done: make(chan struct{}),
	}
}

// Push enqueues a text frame without blocking. A full buffer or a closed
// connection drops the frame, which is the agreed best-effort contract.
func (c *Conn) Push(payload []byte) bool {
	if c.closed.Load() {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Ping sends a ping control frame on behalf of the heartbeat monitor.
func (c *Conn) Ping() error {
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Close force-closes the socket. Idempotent; both the explicit-close path
// and the heartbeat-death path may call it.
func (c *Conn) Close() {
	c.once.Do(func() {
		c.closed.Store(true)
		close(c.done)
		_ = c.ws.Close()
	})
}

// writePump drains the send channel onto the socket until the connection
// closes. It owns all data writes.
func (c *Conn) writePump() {
	for {
		select {
		case payload := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}
