package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"duo-chat/contract"
	"duo-chat/domain"
	"duo-chat/observability"
	"duo-chat/runtime/workers"
	"duo-chat/services"
)

// Server upgrades HTTP requests to live chat connections and owns the
// connection lifecycle: identity binding, registry membership, heartbeat
// supervision and the read loop feeding the message router.
type Server struct {
	log         *slog.Logger
	upgrader    websocket.Upgrader
	registry    contract.IRegistry
	broadcaster contract.IPresenceBroadcaster
	chat        services.IChatService
	verifier    contract.IIdentityVerifier
	monitor     *observability.Monitor

	heartbeatInterval time.Duration
	heartbeatTimeout  time.Duration
	bufferSize        int
}

func NewServer(
	log *slog.Logger,
	registry contract.IRegistry,
	broadcaster contract.IPresenceBroadcaster,
	chat services.IChatService,
	verifier contract.IIdentityVerifier,
	monitor *observability.Monitor,
	heartbeatInterval, heartbeatTimeout time.Duration,
	bufferSize int,
) *Server {
	return &Server{
		log: log,
		upgrader: websocket.Upgrader{
			// The browser client is served from a different origin in
			// development; origin policy is enforced by the deployment.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		registry:          registry,
		broadcaster:       broadcaster,
		chat:              chat,
		verifier:          verifier,
		monitor:           monitor,
		heartbeatInterval: heartbeatInterval,
		heartbeatTimeout:  heartbeatTimeout,
		bufferSize:        bufferSize,
	}
}

// Handle is the /ws endpoint. It blocks for the lifetime of the connection:
// the read loop runs on the handler goroutine, the write pump and the
// heartbeat monitor on their own.
func (s *Server) Handle(w http.ResponseWriter, r *http.Request) {
	socket, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Websocket upgrade failed", "err", err)
		return
	}

	identity := s.bindIdentity(r)
	transport := newConn(socket, s.bufferSize)
	conn := domain.NewConnection(transport, identity)

	if err := s.registry.Add(conn); err != nil {
		s.log.Error("Registry rejected connection", "connection", conn.ID, "err", err)
		transport.Close()
		return
	}
	s.monitor.ConnOpened()
	s.log.Info("Connection established",
		"connection", conn.ID, "user", conn.UserID, "anonymous", !conn.Identified())

	// The request context dies with the handler; the connection needs its
	// own cancellation scope for the heartbeat monitor.
	ctx, cancel := context.WithCancel(context.Background())

	heartbeat := workers.NewHeartbeatMonitor(
		s.log, conn, s.registry, s.broadcaster, s.monitor,
		s.heartbeatInterval, s.heartbeatTimeout,
	)
	socket.SetPongHandler(func(string) error {
		heartbeat.Pong()
		return nil
	})

	go transport.writePump()
	go func() { _ = heartbeat.Run(ctx) }()

	s.broadcaster.Broadcast()

	s.readLoop(conn, socket)

	// Explicit-close path. The heartbeat-death path may have won already;
	// Remove reports who did, so the extra broadcast never doubles.
	cancel()
	transport.Close()
	if s.registry.Remove(conn) {
		s.broadcaster.Broadcast()
	}
	s.monitor.ConnClosed()
	s.log.Info("Connection closed", "connection", conn.ID, "user", conn.UserID)
}

// readLoop feeds inbound frames to the router in arrival order. It returns
// when the socket errors out, through either a clean peer close or the
// heartbeat monitor tearing the transport down.
func (s *Server) readLoop(conn *domain.Connection, socket *websocket.Conn) {
	for {
		_, payload, err := socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("Read loop ended", "connection", conn.ID, "err", err)
			}
			return
		}
		s.chat.HandleInbound(conn, payload)
	}
}

// bindIdentity extracts the token cookie from the handshake request and
// asks the verifier for the identity it carries. Verification failure or
// an absent credential yields an anonymous connection rather than a
// rejection; anonymous connections can listen but are never a recipient.
func (s *Server) bindIdentity(r *http.Request) domain.Identity {
	cookie, err := r.Cookie("token")
	if err != nil || cookie.Value == "" {
		return domain.Identity{}
	}

	identity, err := s.verifier.Verify(cookie.Value)
	if err != nil {
		s.log.Debug("Handshake credential rejected, joining anonymously", "err", err)
		return domain.Identity{}
	}
	return identity
}
