package runtime

import (
	"sync"

	"duo-chat/domain"
	"duo-chat/errors"

	"github.com/google/uuid"
)

// Registry is the shared, mutable set of all live connections.
// It is constructed once at process start and injected into the heartbeat
// monitors, the presence broadcaster and the message router; nothing else
// mutates the membership set. Iteration methods return copies so callers
// never observe a set that mutates under them.
type Registry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]*domain.Connection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[uuid.UUID]*domain.Connection)}
}

// Add inserts a connection. A duplicate id is a caller bug; it is reported
// as ErrDuplicateConnection instead of silently replaced so the first
// connection's monitor is never orphaned.
func (r *Registry) Add(conn *domain.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[conn.ID]; ok {
		return errors.ErrDuplicateConnection
	}
	r.conns[conn.ID] = conn
	return nil
}

// Remove deletes a connection and reports whether it was present.
// An absent connection is not an error: the explicit-close path and the
// heartbeat-death path may race, and the loser must be a no-op.
func (r *Registry) Remove(conn *domain.Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[conn.ID]; !ok {
		return false
	}
	delete(r.conns, conn.ID)
	return true
}

// ByUser returns every live connection bound to the given user id.
// An empty result means the user is simply offline.
// A user may hold several connections at once (multi-device).
func (r *Registry) ByUser(userID string) []*domain.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []*domain.Connection
	for _, conn := range r.conns {
		if conn.UserID == userID {
			matches = append(matches, conn)
		}
	}
	return matches
}

// All returns a snapshot of the membership set, safe to iterate while the
// registry keeps mutating.
func (r *Registry) All() []*domain.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make([]*domain.Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		snapshot = append(snapshot, conn)
	}
	return snapshot
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
