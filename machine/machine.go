// Package machine tracks press status and job assignment for the shop floor
package machine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/AmrendraTheCoder/go-backend-sub000/errors"
)

// MachineStatus is a press's operational state
type MachineStatus string

// Machine statuses
const (
	StatusIdle        MachineStatus = "idle"
	StatusRunning     MachineStatus = "running"
	StatusMaintenance MachineStatus = "maintenance"
	StatusOffline     MachineStatus = "offline"
)

// Valid reports whether s is a defined machine status
func (s MachineStatus) Valid() bool {
	switch s {
	case StatusIdle, StatusRunning, StatusMaintenance, StatusOffline:
		return true
	}
	return false
}

// Machine is one press on the floor. ID is the bare machine id ("1"); Name
// is the display name ("Machine 1") used in job records.
type Machine struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	Status            MachineStatus `json:"status"`
	CurrentJob        string        `json:"currentJob,omitempty"`
	Operator          string        `json:"operator,omitempty"`
	MaintenanceStatus string        `json:"maintenanceStatus,omitempty"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

// Store persists machines
type Store interface {
	Get(ctx context.Context, id string) (*Machine, error)
	Put(ctx context.Context, m *Machine) error
	List(ctx context.Context) ([]*Machine, error)
}

// MemoryStore is a mutex-guarded in-memory Store
type MemoryStore struct {
	mu       sync.RWMutex
	machines map[string]*Machine
}

// NewMemoryStore creates an empty in-memory machine store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{machines: make(map[string]*Machine)}
}

// Get returns a copy of the stored machine
func (s *MemoryStore) Get(_ context.Context, id string) (*Machine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.machines[id]
	if !ok {
		return nil, errors.Wrap(errors.ErrNotFound, "MemoryStore", "Get", "load machine "+id)
	}
	out := *m
	return &out, nil
}

// Put stores a copy of the machine
func (s *MemoryStore) Put(_ context.Context, m *Machine) error {
	if m.ID == "" {
		return errors.Validationf("machine has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *m
	s.machines[m.ID] = &stored
	return nil
}

// List returns copies of all machines sorted by id
func (s *MemoryStore) List(_ context.Context) ([]*Machine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Machine, 0, len(s.machines))
	for _, m := range s.machines {
		c := *m
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
