package domain

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Transport is the live socket side of a connection.
// The transport layer owns the socket lifetime; the registry only holds
// a reference to the connection that wraps it.
type Transport interface {
	// Push enqueues a text frame without blocking.
	// It reports false when the connection buffer is full or closed,
	// in which case the frame is dropped (best-effort delivery).
	Push(payload []byte) bool

	// Ping sends a ping control frame.
	Ping() error

	// Close force-closes the underlying socket. Safe to call more than once.
	Close()
}

// Identity is a verified user identity bound to a connection at handshake.
type Identity struct {
	UserID   string
	Username string
}

// Connection wraps one live socket plus its identity and liveness state.
// UserID and Username are set once before the connection enters the
// registry and are immutable afterwards. A connection without a UserID is
// anonymous and still participates in the registry.
type Connection struct {
	ID        uuid.UUID
	UserID    string
	Username  string
	Transport Transport

	dead atomic.Bool
}

func NewConnection(transport Transport, identity Identity) *Connection {
	return &Connection{
		ID:        uuid.New(),
		UserID:    identity.UserID,
		Username:  identity.Username,
		Transport: transport,
	}
}

// Identified reports whether a verified identity is bound to the connection.
func (c *Connection) Identified() bool {
	return c.UserID != ""
}

// Alive reports whether the heartbeat monitor still considers the peer live.
func (c *Connection) Alive() bool {
	return !c.dead.Load()
}

// MarkDead flips the liveness flag. Only the heartbeat monitor calls this.
func (c *Connection) MarkDead() {
	c.dead.Store(true)
}
