package observability

import (
	"sync/atomic"
	"time"
)

// Stats is a point-in-time view of the routing core counters.
type Stats struct {
	LiveConnections uint64 `json:"live_connections"`
	MessagesRouted  uint64 `json:"messages_routed"`
	Broadcasts      uint64 `json:"broadcasts"`
	DroppedFrames   uint64 `json:"dropped_frames"`
	MalformedFrames uint64 `json:"malformed_frames"`
	HeartbeatDeaths uint64 `json:"heartbeat_deaths"`
	StartedAt       string `json:"started_at"`
}

// Monitor aggregates real-time telemetry for the service. All counters are
// atomic; Snapshot may be called from any goroutine.
type Monitor struct {
	live            atomic.Int64
	messagesRouted  atomic.Uint64
	broadcasts      atomic.Uint64
	droppedFrames   atomic.Uint64
	malformedFrames atomic.Uint64
	heartbeatDeaths atomic.Uint64
	startedAt       time.Time
}

func NewMonitor() *Monitor {
	return &Monitor{startedAt: time.Now().UTC()}
}

func (m *Monitor) ConnOpened()          { m.live.Add(1) }
func (m *Monitor) ConnClosed()          { m.live.Add(-1) }
func (m *Monitor) IncrMessagesRouted()  { m.messagesRouted.Add(1) }
func (m *Monitor) IncrBroadcasts()      { m.broadcasts.Add(1) }
func (m *Monitor) IncrDroppedFrames()   { m.droppedFrames.Add(1) }
func (m *Monitor) IncrMalformedFrames() { m.malformedFrames.Add(1) }
func (m *Monitor) IncrHeartbeatDeaths() { m.heartbeatDeaths.Add(1) }

func (m *Monitor) Snapshot() Stats {
	live := m.live.Load()
	if live < 0 {
		live = 0
	}
	return Stats{
		LiveConnections: uint64(live),
		MessagesRouted:  m.messagesRouted.Load(),
		Broadcasts:      m.broadcasts.Load(),
		DroppedFrames:   m.droppedFrames.Load(),
		MalformedFrames: m.malformedFrames.Load(),
		HeartbeatDeaths: m.heartbeatDeaths.Load(),
		StartedAt:       m.startedAt.Format(time.RFC3339),
	}
}
