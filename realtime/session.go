package realtime

import (
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AmrendraTheCoder/go-backend-sub000/auth"
)

// Session is the live, in-memory record of one authenticated connection.
// Sessions are owned exclusively by the Registry: created on successful
// connect, mutated only through Join/Leave, destroyed on disconnect. They
// are never persisted.
type Session struct {
	ID          string
	UserID      string
	Name        string
	Role        auth.Role
	MachineID   string
	ConnectedAt time.Time

	conn *websocket.Conn

	// writeMu serializes writes to conn: gorilla/websocket does not allow
	// concurrent writers on one connection.
	writeMu sync.Mutex

	closed sync.Once
	dead   bool
	deadMu sync.Mutex
}

// write sends a prepared frame to the session's connection
func (s *Session) write(deadline time.Duration, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(deadline))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// markDead flags the session as mid-disconnect so publishes skip it silently
func (s *Session) markDead() {
	s.deadMu.Lock()
	s.dead = true
	s.deadMu.Unlock()
}

func (s *Session) isDead() bool {
	s.deadMu.Lock()
	defer s.deadMu.Unlock()
	return s.dead
}

// Registry tracks every connected session and the group membership table.
// All access goes through mutex-guarded methods; the raw maps are never
// exposed, so a publish iterating a group's members can never observe a
// half-updated membership set.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session           // session id -> session
	groups   map[Group]map[string]*Session // group -> session id -> session
}

// NewRegistry creates an empty session registry
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		groups:   make(map[Group]map[string]*Session),
	}
}

// Add registers a session and joins it to the given groups atomically
func (r *Registry) Add(s *Session, groups []Group) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[s.ID] = s
	for _, g := range groups {
		r.joinLocked(s, g)
	}
}

// Remove deletes a session from the registry and from every group it joined.
// Returns false if the session was not registered.
func (r *Registry) Remove(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return false
	}
	delete(r.sessions, sessionID)

	for g, members := range r.groups {
		if _, member := members[sessionID]; member {
			delete(members, sessionID)
			if len(members) == 0 {
				delete(r.groups, g)
			}
		}
	}
	s.markDead()
	return true
}

// Join adds a session to a group. No-op if the session is unknown.
func (r *Registry) Join(sessionID string, group Group) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return false
	}
	r.joinLocked(s, group)
	return true
}

// Leave removes a session from a group
func (r *Registry) Leave(sessionID string, group Group) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.groups[group]
	if !ok {
		return
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(r.groups, group)
	}
}

func (r *Registry) joinLocked(s *Session, group Group) {
	members, ok := r.groups[group]
	if !ok {
		members = make(map[string]*Session)
		r.groups[group] = members
	}
	members[s.ID] = s
}

// Members returns a snapshot of the sessions currently joined to a group.
// The returned slice is owned by the caller; delivery iterates it without
// holding the registry lock.
func (r *Registry) Members(group Group) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.groups[group]
	if len(members) == 0 {
		return nil
	}
	snapshot := make([]*Session, 0, len(members))
	for _, s := range members {
		snapshot = append(snapshot, s)
	}
	return snapshot
}

// GroupsOf returns the sorted group names a session currently belongs to
func (r *Registry) GroupsOf(sessionID string) []Group {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Group
	for g, members := range r.groups {
		if _, ok := members[sessionID]; ok {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Get returns the session with the given id
func (r *Registry) Get(sessionID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	return s, ok
}

// Count returns the number of live sessions
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
