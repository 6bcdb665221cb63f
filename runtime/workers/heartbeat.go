package workers

import (
	"context"
	"log/slog"
	"time"

	"duo-chat/contract"
	"duo-chat/domain"
	"duo-chat/observability"
)

// HeartbeatMonitor proves the liveness of one connection.
//
// State machine: ALIVE -> PING_SENT on every interval tick (a ping control
// frame goes out and the death timer is armed). PING_SENT -> ALIVE when a
// pong arrives before the death timer fires. PING_SENT -> DEAD when it
// doesn't: the connection is closed, removed from the registry and one
// presence broadcast follows.
//
// Every connection gets its own monitor with independent timers. A single
// goroutine owns both timers, so teardown through any path (pong handler,
// explicit close via context, death timer) is deterministic: once Run
// returns, neither timer can fire again.
//
// Rationale: a peer that vanished without a clean close keeps the socket
// half-open for a long time; the read loop alone would never notice.
type HeartbeatMonitor struct {
	log         *slog.Logger
	conn        *domain.Connection
	registry    contract.IRegistry
	broadcaster contract.IPresenceBroadcaster
	monitor     *observability.Monitor
	interval    time.Duration
	timeout     time.Duration
	pong        chan struct{}
}

func NewHeartbeatMonitor(
	log *slog.Logger,
	conn *domain.Connection,
	registry contract.IRegistry,
	broadcaster contract.IPresenceBroadcaster,
	monitor *observability.Monitor,
	interval, timeout time.Duration,
) *HeartbeatMonitor {
	return &HeartbeatMonitor{
		log:         log,
		conn:        conn,
		registry:    registry,
		broadcaster: broadcaster,
		monitor:     monitor,
		interval:    interval,
		timeout:     timeout,
		pong:        make(chan struct{}, 1),
	}
}

// Pong notifies the monitor that the peer answered the outstanding ping.
// Called from the transport's pong handler; never blocks.
func (m *HeartbeatMonitor) Pong() {
	select {
	case m.pong <- struct{}{}:
	default:
	}
}

// Run drives the state machine until the connection dies or ctx is
// canceled. Cancellation is the explicit-close path: both timers are
// stopped and no death handling runs.
func (m *HeartbeatMonitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	var death *time.Timer
	var deathC <-chan time.Time
	defer func() {
		if death != nil {
			death.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			if deathC != nil {
				// Previous ping still outstanding, the death timer is
				// already counting down.
				continue
			}
			if err := m.conn.Transport.Ping(); err != nil {
				m.die()
				return nil
			}
			death = time.NewTimer(m.timeout)
			deathC = death.C

		case <-m.pong:
			if death != nil {
				death.Stop()
				death, deathC = nil, nil
			}

		case <-deathC:
			m.die()
			return nil
		}
	}
}

// die performs the PING_SENT -> DEAD transition: flag the connection,
// force-close the transport, drop it from the registry and broadcast the
// shrunken roster. The broadcast only fires when this monitor actually won
// the removal race, so a concurrent explicit close never doubles it.
// A heartbeat death is an expected operational event, not a failure.
func (m *HeartbeatMonitor) die() {
	m.conn.MarkDead()
	m.conn.Transport.Close()
	m.monitor.IncrHeartbeatDeaths()

	if m.registry.Remove(m.conn) {
		m.log.Info("Connection lost to heartbeat timeout",
			"connection", m.conn.ID, "user", m.conn.UserID)
		m.broadcaster.Broadcast()
	}
}
