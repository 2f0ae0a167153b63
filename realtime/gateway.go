package realtime

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/AmrendraTheCoder/go-backend-sub000/auth"
	"github.com/AmrendraTheCoder/go-backend-sub000/errors"
	"github.com/AmrendraTheCoder/go-backend-sub000/metric"
)

// GatewayConfig holds all configuration needed to construct a Gateway
type GatewayConfig struct {
	Verifier        *auth.Verifier   // Bearer-token verifier (required)
	Logger          *slog.Logger     // Structured logger (nil = slog.Default)
	MetricsRegistry *metric.Registry // Optional Prometheus metrics registry
	WriteTimeout    time.Duration    // Per-frame write deadline
	IdleTimeout     time.Duration    // Read deadline; prunes dead sessions
	PingInterval    time.Duration    // Transport ping cadence
}

// DefaultGatewayConfig returns sensible defaults for Gateway construction
func DefaultGatewayConfig(verifier *auth.Verifier) GatewayConfig {
	return GatewayConfig{
		Verifier:     verifier,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		PingInterval: 30 * time.Second,
	}
}

// Gateway accepts authenticated websocket connections, assigns each session
// to its broadcast groups, and exposes the publish-to-group primitive the
// domain emitters use. A slow or failing session never stalls delivery to
// other members of the same group.
type Gateway struct {
	verifier     *auth.Verifier
	registry     *Registry
	upgrader     websocket.Upgrader
	logger       *slog.Logger
	writeTimeout time.Duration
	idleTimeout  time.Duration
	pingInterval time.Duration

	// OnConnect and OnDisconnect are invoked after a session is registered
	// and after it is removed. The wiring layer uses these to emit the
	// administrative connect/disconnect notices. Set before Start.
	OnConnect    func(*Session)
	OnDisconnect func(*Session, string)

	// Lifecycle management
	shutdown chan struct{}
	running  bool
	mu       sync.RWMutex
	wg       sync.WaitGroup

	metrics *Metrics
}

// NewGateway creates a Gateway from config
func NewGateway(cfg GatewayConfig) (*Gateway, error) {
	if cfg.Verifier == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Gateway", "NewGateway",
			"token verifier is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}

	return &Gateway{
		verifier: cfg.Verifier,
		registry: NewRegistry(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Tablets connect from the shop LAN; origin filtering happens
			// at the reverse proxy.
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		logger:       logger.With("component", "gateway"),
		writeTimeout: cfg.WriteTimeout,
		idleTimeout:  cfg.IdleTimeout,
		pingInterval: cfg.PingInterval,
		metrics:      newMetrics(cfg.MetricsRegistry),
	}, nil
}

// Registry returns the session registry (read-only use: counts, membership)
func (g *Gateway) Registry() *Registry {
	return g.registry
}

// Start begins the session maintenance loop
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running {
		return nil
	}
	if ctx == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Gateway", "Start", "context cannot be nil")
	}

	g.shutdown = make(chan struct{})
	g.running = true

	g.wg.Add(1)
	go g.maintainSessions(ctx)

	return nil
}

// Stop closes every session and waits for goroutines to exit
func (g *Gateway) Stop(timeout time.Duration) error {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return nil
	}
	g.running = false
	close(g.shutdown)
	g.mu.Unlock()

	// Close every live connection; read loops exit on the closed conn.
	for _, s := range g.registry.Members(GroupAllUsers) {
		s.closed.Do(func() {
			_ = s.conn.Close()
		})
		g.registry.Remove(s.ID)
	}

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.WrapTransient(
			fmt.Errorf("goroutines did not exit within %v", timeout),
			"Gateway", "Stop", "await shutdown")
	}
}

// isRunning reports whether the gateway accepts work
func (g *Gateway) isRunning() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.running
}

// bearerToken extracts the handshake credential from the Authorization
// header, falling back to the token query parameter for browser websocket
// clients that cannot set headers.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return token
		}
	}
	return r.URL.Query().Get("token")
}

// ServeHTTP upgrades an authenticated request to a websocket session.
// A missing or invalid token rejects the connection before any session
// state exists and before any envelope is sent.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !g.isRunning() {
		http.Error(w, "gateway unavailable", http.StatusServiceUnavailable)
		return
	}

	claims, err := g.verifier.Verify(bearerToken(r))
	if err != nil {
		if g.metrics != nil {
			g.metrics.authFailuresTotal.Inc()
		}
		g.logger.Warn("handshake rejected", "remote", r.RemoteAddr, "error", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	session := &Session{
		ID:          uuid.NewString(),
		UserID:      claims.UserID(),
		Name:        claims.Name,
		Role:        claims.Role,
		MachineID:   claims.MachineID,
		ConnectedAt: time.Now(),
		conn:        conn,
	}

	groups := ResolveGroups(session.Role, session.MachineID)
	g.registry.Add(session, groups)

	if g.metrics != nil {
		g.metrics.connectionsTotal.Inc()
		g.metrics.sessionsConnected.Set(float64(g.registry.Count()))
	}

	g.logger.Info("session connected",
		"session_id", session.ID,
		"user_id", session.UserID,
		"role", string(session.Role),
		"groups", groupNames(groups),
	)

	g.sendControl(session, ControlFrame{
		Type:            ControlConnectionConfirmed,
		UserID:          session.UserID,
		Role:            string(session.Role),
		AvailableGroups: groupNames(groups),
	})

	if g.OnConnect != nil {
		g.OnConnect(session)
	}

	g.wg.Add(1)
	go g.readLoop(session)
}

// readLoop consumes control frames from one session until it drops
func (g *Gateway) readLoop(session *Session) {
	defer g.wg.Done()

	session.conn.SetPongHandler(func(string) error {
		_ = session.conn.SetReadDeadline(time.Now().Add(g.idleTimeout))
		return nil
	})

	for {
		select {
		case <-g.shutdown:
			g.disconnect(session, "shutdown")
			return
		default:
		}

		_ = session.conn.SetReadDeadline(time.Now().Add(g.idleTimeout))

		_, data, err := session.conn.ReadMessage()
		if err != nil {
			g.disconnect(session, disconnectReason(err))
			return
		}

		g.handleControl(session, data)
	}
}

// disconnectReason maps a read error to a disconnect label
func disconnectReason(err error) string {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return "client_closed"
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return "idle_timeout"
	}
	return "read_error"
}

// handleControl dispatches one inbound control frame
func (g *Gateway) handleControl(session *Session, data []byte) {
	frame, err := decodeControl(data)
	if err != nil {
		g.logger.Debug("malformed control frame", "session_id", session.ID, "error", err)
		return
	}

	if g.metrics != nil {
		g.metrics.controlFrames.WithLabelValues(frame.Type).Inc()
	}

	switch frame.Type {
	case ControlPing:
		g.sendControl(session, ControlFrame{Type: ControlPong})

	case ControlJoinRoom:
		g.handleJoin(session, frame.Room)

	case ControlLeaveRoom:
		group, err := ParseGroup(frame.Room)
		if err != nil {
			g.logger.Debug("leave unknown group", "session_id", session.ID, "room", frame.Room)
			return
		}
		g.registry.Leave(session.ID, group)
		g.sendControl(session, ControlFrame{Type: ControlRoomLeft, Room: group.String()})

	case ControlSubscribeJob:
		if frame.JobID == "" {
			g.logger.Debug("subscribe without job id", "session_id", session.ID)
			return
		}
		group := JobGroup(frame.JobID)
		g.registry.Join(session.ID, group)
		g.sendControl(session, ControlFrame{Type: ControlRoomJoined, Room: group.String()})

	case ControlUnsubscribeJob:
		if frame.JobID == "" {
			return
		}
		group := JobGroup(frame.JobID)
		g.registry.Leave(session.ID, group)
		g.sendControl(session, ControlFrame{Type: ControlRoomLeft, Room: group.String()})

	default:
		g.logger.Debug("unknown control type", "session_id", session.ID, "type", frame.Type)
	}
}

// handleJoin processes a manual join-room request, gated by the same role
// table as auto-join.
func (g *Gateway) handleJoin(session *Session, room string) {
	group, err := ParseGroup(room)
	if err != nil {
		g.sendControl(session, ControlFrame{
			Type:   ControlRoomJoinDenied,
			Room:   room,
			Reason: "unknown group",
		})
		return
	}

	if !CanJoin(session.Role, session.MachineID, group) {
		g.sendControl(session, ControlFrame{
			Type:   ControlRoomJoinDenied,
			Room:   group.String(),
			Reason: denyReason(session.Role, group),
		})
		return
	}

	g.registry.Join(session.ID, group)
	g.sendControl(session, ControlFrame{Type: ControlRoomJoined, Room: group.String()})
}

// Publish delivers an encoded envelope to every current member of a group.
// Deliveries run concurrently; a failure on one session is isolated, logged,
// and counted, and never aborts delivery to the rest. Publishing to a group
// with no members is a no-op.
func (g *Gateway) Publish(group Group, data []byte) error {
	if !g.isRunning() {
		return errors.Wrap(errors.ErrNotStarted, "Gateway", "Publish", "deliver envelope")
	}

	members := g.registry.Members(group)
	if len(members) == 0 {
		return nil
	}

	start := time.Now()
	var wg sync.WaitGroup
	for _, s := range members {
		if s.isDead() {
			continue
		}
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			if err := s.write(g.writeTimeout, data); err != nil {
				if g.metrics != nil {
					g.metrics.deliveryErrors.WithLabelValues(group.String()).Inc()
				}
				g.logger.Warn("delivery failed",
					"session_id", s.ID,
					"group", group.String(),
					"error", err,
				)
				g.disconnect(s, "write_error")
				return
			}
			if g.metrics != nil {
				g.metrics.messagesSent.WithLabelValues(group.String()).Inc()
			}
		}(s)
	}
	wg.Wait()

	if g.metrics != nil {
		g.metrics.broadcastDuration.WithLabelValues(group.String()).Observe(time.Since(start).Seconds())
	}
	return nil
}

// sendControl writes a control frame to one session; failures disconnect it
func (g *Gateway) sendControl(session *Session, frame ControlFrame) {
	data, err := frame.Encode()
	if err != nil {
		g.logger.Error("encode control frame", "type", frame.Type, "error", err)
		return
	}
	if err := session.write(g.writeTimeout, data); err != nil {
		g.disconnect(session, "write_error")
	}
}

// disconnect removes a session from every group and the registry, closes
// the connection, and fires the OnDisconnect callback exactly once.
func (g *Gateway) disconnect(session *Session, reason string) {
	session.closed.Do(func() {
		session.markDead()
		g.registry.Remove(session.ID)
		_ = session.conn.Close()

		if g.metrics != nil {
			g.metrics.disconnectionsTotal.WithLabelValues(reason).Inc()
			g.metrics.sessionsConnected.Set(float64(g.registry.Count()))
		}

		g.logger.Info("session disconnected",
			"session_id", session.ID,
			"user_id", session.UserID,
			"reason", reason,
		)

		if g.OnDisconnect != nil {
			g.OnDisconnect(session, reason)
		}
	})
}

// maintainSessions pings connected sessions so dead tablets are pruned by
// their read deadline rather than lingering in groups.
func (g *Gateway) maintainSessions(ctx context.Context) {
	defer g.wg.Done()

	ticker := time.NewTicker(g.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-g.shutdown:
			return
		case <-ticker.C:
			for _, s := range g.registry.Members(GroupAllUsers) {
				if s.isDead() {
					continue
				}
				s.writeMu.Lock()
				_ = s.conn.SetWriteDeadline(time.Now().Add(g.writeTimeout))
				err := s.conn.WriteMessage(websocket.PingMessage, nil)
				s.writeMu.Unlock()
				if err != nil {
					g.disconnect(s, "ping_failed")
				}
			}
		}
	}
}
