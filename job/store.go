package job

import (
	"context"
	"sort"
	"sync"

	"github.com/AmrendraTheCoder/go-backend-sub000/errors"
)

// Store persists jobs. The state machine's persist step completes before
// any event is emitted, so implementations must return only after the write
// is durable (for the in-memory store, after the map update).
type Store interface {
	Get(ctx context.Context, id string) (*Job, error)
	Put(ctx context.Context, j *Job) error
	List(ctx context.Context) ([]*Job, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore is a mutex-guarded in-memory Store
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewMemoryStore creates an empty in-memory job store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job)}
}

// Get returns a copy of the stored job
func (s *MemoryStore) Get(_ context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, errors.Wrap(errors.ErrNotFound, "MemoryStore", "Get", "load job "+id)
	}
	return j.clone(), nil
}

// Put stores a copy of the job keyed by id
func (s *MemoryStore) Put(_ context.Context, j *Job) error {
	if j.ID == "" {
		return errors.Validationf("job has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[j.ID] = j.clone()
	return nil
}

// List returns copies of all stored jobs ordered by creation time
func (s *MemoryStore) List(_ context.Context) ([]*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.clone())
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.Before(out[k].CreatedAt) })
	return out, nil
}

// Delete removes a job
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return errors.Wrap(errors.ErrNotFound, "MemoryStore", "Delete", "delete job "+id)
	}
	delete(s.jobs, id)
	return nil
}
