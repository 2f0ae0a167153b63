// Package client implements the reconnecting websocket client used by the
// shop-floor surfaces: exponential backoff with a hard attempt cap, a typed
// subscription registry for inbound events, and queued control intents that
// replay on reconnect. Events published while disconnected are gone; the
// caller re-fetches authoritative state after reconnecting.
package client

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AmrendraTheCoder/go-backend-sub000/errors"
	"github.com/AmrendraTheCoder/go-backend-sub000/event"
	"github.com/AmrendraTheCoder/go-backend-sub000/pkg/retry"
	"github.com/AmrendraTheCoder/go-backend-sub000/realtime"
)

// State is the connection lifecycle position
type State string

// Connection states
const (
	StateDisconnected State = "disconnected"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateFailed       State = "failed" // attempt cap reached; manual Connect required
)

// Handler receives a decoded event payload
type Handler func(payload any)

// StateHandler receives connection state changes
type StateHandler func(state State)

// Config holds client construction parameters
type Config struct {
	URL              string        // websocket endpoint
	Token            string        // signed bearer token
	MachineID        string        // set for machine-bound clients; announces presence on connect
	Retry            retry.Config  // backoff schedule; zero value uses retry.Reconnect()
	HandshakeTimeout time.Duration // dial timeout
	WriteTimeout     time.Duration // per-frame write deadline
	Logger           *slog.Logger
}

// Manager owns one logical connection to the gateway and keeps it alive
// across drops until the attempt cap is reached.
type Manager struct {
	cfg    Config
	dialer *websocket.Dialer
	logger *slog.Logger

	mu         sync.Mutex
	conn       *websocket.Conn
	state      State
	closing    bool
	generation int // bumped on every manual Connect/Close to cancel stale retry loops
	nextID     int
	handlers   map[event.Type]map[int]Handler
	stateSubs  map[int]StateHandler
	pending    []realtime.ControlFrame // control intents queued while disconnected

	// writeMu serializes frame writes; gorilla/websocket forbids
	// concurrent writers.
	writeMu  sync.Mutex
	readDone sync.WaitGroup
}

// NewManager creates a disconnected Manager
func NewManager(cfg Config) (*Manager, error) {
	if cfg.URL == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Manager", "NewManager", "websocket URL is required")
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.Reconnect()
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		cfg: cfg,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		logger:    logger.With("component", "client"),
		state:     StateDisconnected,
		handlers:  make(map[event.Type]map[int]Handler),
		stateSubs: make(map[int]StateHandler),
	}, nil
}

// State returns the current connection state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect opens the connection. Calling it resets the backoff schedule, so
// it doubles as the manual reconnect after the attempt cap was reached.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateConnected {
		m.mu.Unlock()
		return errors.Wrap(errors.ErrAlreadyStarted, "Manager", "Connect", "open connection")
	}
	m.closing = false
	m.generation++
	gen := m.generation
	m.mu.Unlock()

	if err := m.dial(ctx, gen); err != nil {
		return errors.WrapTransient(err, "Manager", "Connect", "open connection")
	}
	return nil
}

// Close shuts the connection down intentionally; no retry is scheduled
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closing = true
	m.generation++
	conn := m.conn
	m.conn = nil
	m.setStateLocked(StateDisconnected)
	m.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
	m.readDone.Wait()
	return nil
}

// dial performs one connection attempt and, on success, installs the
// connection, replays queued control intents, and starts the read loop.
func (m *Manager) dial(ctx context.Context, gen int) error {
	header := http.Header{}
	if m.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+m.cfg.Token)
	}

	conn, resp, err := m.dialer.DialContext(ctx, m.cfg.URL, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return err
	}

	m.mu.Lock()
	if gen != m.generation || m.closing {
		m.mu.Unlock()
		_ = conn.Close()
		return errors.ErrSessionClosed
	}
	m.conn = conn
	m.setStateLocked(StateConnected)
	queued := m.pending
	m.pending = nil
	m.mu.Unlock()

	m.logger.Info("connected", "url", m.cfg.URL)

	// Machine-bound clients announce presence to their machine group
	if m.cfg.MachineID != "" {
		m.send(realtime.ControlFrame{
			Type: realtime.ControlJoinRoom,
			Room: realtime.MachineGroup(m.cfg.MachineID).String(),
		})
	}
	for _, frame := range queued {
		m.send(frame)
	}

	m.readDone.Add(1)
	go m.readLoop(conn, gen)
	return nil
}

// readLoop consumes frames until the connection drops
func (m *Manager) readLoop(conn *websocket.Conn, gen int) {
	defer m.readDone.Done()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.onDrop(gen, err)
			return
		}
		m.dispatch(data)
	}
}

// onDrop handles a lost connection: intentional closes stop here, anything
// else schedules the retry loop.
func (m *Manager) onDrop(gen int, cause error) {
	m.mu.Lock()
	if m.closing || gen != m.generation {
		m.mu.Unlock()
		return
	}
	m.conn = nil
	m.setStateLocked(StateReconnecting)
	m.mu.Unlock()

	m.logger.Warn("connection lost", "error", cause)
	go m.retryLoop(gen)
}

// retryLoop attempts reconnection with exponential backoff. After the cap it
// signals failure and stops; only a manual Connect resumes.
func (m *Manager) retryLoop(gen int) {
	for attempt := 1; attempt <= m.cfg.Retry.MaxAttempts; attempt++ {
		delay := m.cfg.Retry.Delay(attempt)
		m.logger.Info("reconnecting", "attempt", attempt, "delay", delay)
		time.Sleep(delay)

		m.mu.Lock()
		stale := m.closing || gen != m.generation
		m.mu.Unlock()
		if stale {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.HandshakeTimeout)
		err := m.dial(ctx, gen)
		cancel()
		if err == nil {
			return
		}
		m.logger.Warn("reconnect attempt failed", "attempt", attempt, "error", err)
	}

	m.mu.Lock()
	if !m.closing && gen == m.generation {
		m.setStateLocked(StateFailed)
	}
	m.mu.Unlock()
	m.logger.Error("reconnect attempts exhausted", "max_attempts", m.cfg.Retry.MaxAttempts)
}

// dispatch routes one inbound frame to subscribed handlers. Control frames
// are ignored apart from logging; event envelopes fan out per type.
func (m *Manager) dispatch(data []byte) {
	env, err := event.Decode(data)
	if err != nil {
		// Control acks (room-joined, pong, ...) land here; not an error
		m.logger.Debug("non-event frame", "error", err)
		return
	}

	payload, err := env.DecodePayload()
	if err != nil {
		m.logger.Warn("malformed payload", "event_type", string(env.Type), "error", err)
		return
	}

	m.mu.Lock()
	subs := make([]Handler, 0, len(m.handlers[env.Type]))
	for _, h := range m.handlers[env.Type] {
		subs = append(subs, h)
	}
	m.mu.Unlock()

	for _, h := range subs {
		m.invoke(h, payload, env.Type)
	}
}

// invoke runs one handler with panic isolation so a failing handler never
// takes down the read loop or its peers.
func (m *Manager) invoke(h Handler, payload any, t event.Type) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("event handler panicked", "event_type", string(t), "panic", r)
		}
	}()
	h(payload)
}

// Subscribe registers a handler for one event type. The returned function
// removes the registration.
func (m *Manager) Subscribe(t event.Type, h Handler) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	if m.handlers[t] == nil {
		m.handlers[t] = make(map[int]Handler)
	}
	m.handlers[t][id] = h

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.handlers[t], id)
	}
}

// OnState registers a connection state listener. The returned function
// removes the registration.
func (m *Manager) OnState(h StateHandler) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.stateSubs[id] = h

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.stateSubs, id)
	}
}

// setStateLocked updates state and notifies listeners. Caller holds m.mu;
// listeners run on their own goroutine so they may call back into Manager.
func (m *Manager) setStateLocked(s State) {
	if m.state == s {
		return
	}
	m.state = s
	for _, h := range m.stateSubs {
		go func(h StateHandler) {
			defer func() {
				if r := recover(); r != nil {
					m.logger.Error("state handler panicked", "panic", r)
				}
			}()
			h(s)
		}(h)
	}
}

// SubscribeJob requests membership in a per-job group. While disconnected
// the intent is queued and replayed on the next successful connect.
func (m *Manager) SubscribeJob(jobID string) {
	m.send(realtime.ControlFrame{Type: realtime.ControlSubscribeJob, JobID: jobID})
}

// UnsubscribeJob leaves a per-job group
func (m *Manager) UnsubscribeJob(jobID string) {
	m.send(realtime.ControlFrame{Type: realtime.ControlUnsubscribeJob, JobID: jobID})
}

// JoinRoom requests membership in a named group
func (m *Manager) JoinRoom(room string) {
	m.send(realtime.ControlFrame{Type: realtime.ControlJoinRoom, Room: room})
}

// LeaveRoom leaves a named group
func (m *Manager) LeaveRoom(room string) {
	m.send(realtime.ControlFrame{Type: realtime.ControlLeaveRoom, Room: room})
}

// Ping sends a liveness probe
func (m *Manager) Ping() {
	m.send(realtime.ControlFrame{Type: realtime.ControlPing})
}

// send writes a control frame, queueing it when disconnected
func (m *Manager) send(frame realtime.ControlFrame) {
	m.mu.Lock()
	conn := m.conn
	if conn == nil {
		if !m.closing {
			m.pending = append(m.pending, frame)
		}
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	data, err := frame.Encode()
	if err != nil {
		m.logger.Error("encode control frame", "type", frame.Type, "error", err)
		return
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(m.cfg.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		m.logger.Warn("control frame write failed", "type", frame.Type, "error", err)
	}
}
