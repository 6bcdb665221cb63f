package runtime

import (
	"encoding/json"
	"log/slog"

	"duo-chat/contract"
	"duo-chat/domain"
	"duo-chat/observability"

	"github.com/samber/lo"
)

// PresenceBroadcaster pushes the current online roster to every live
// connection. The roster is a full replacement, not a diff: it is simpler,
// eventually consistent and tolerant of out-of-order delivery. Each
// membership change triggers one broadcast with no debouncing, an accepted
// O(n²) cost at this scale.
type PresenceBroadcaster struct {
	log      *slog.Logger
	registry contract.IRegistry
	monitor  *observability.Monitor
}

func NewPresenceBroadcaster(log *slog.Logger, registry contract.IRegistry, monitor *observability.Monitor) *PresenceBroadcaster {
	return &PresenceBroadcaster{log: log, registry: registry, monitor: monitor}
}

// Broadcast snapshots the registry, builds one roster entry per connection
// (duplicates preserved for multi-device users, empty ids for anonymous
// connections) and pushes the frame to everyone in the snapshot.
func (b *PresenceBroadcaster) Broadcast() {
	conns := b.registry.All()

	roster := lo.Map(conns, func(conn *domain.Connection, _ int) domain.OnlineEntry {
		return domain.OnlineEntry{UserID: conn.UserID, Username: conn.Username}
	})

	payload, err := json.Marshal(domain.PresenceFrame{Online: roster})
	if err != nil {
		b.log.Error("Failed to encode presence frame", "err", err)
		return
	}

	for _, conn := range conns {
		if !conn.Transport.Push(payload) {
			b.log.Debug("Presence frame dropped", "connection", conn.ID)
			b.monitor.IncrDroppedFrames()
		}
	}
	b.monitor.IncrBroadcasts()
}
