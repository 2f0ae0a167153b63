package inventory

import (
	"context"
	"sort"
	"sync"

	"github.com/AmrendraTheCoder/go-backend-sub000/errors"
)

// Store persists items and their alerts
type Store interface {
	GetItem(ctx context.Context, id string) (*Item, error)
	PutItem(ctx context.Context, item *Item) error
	ListItems(ctx context.Context) ([]*Item, error)

	GetAlert(ctx context.Context, id string) (*Alert, error)
	PutAlert(ctx context.Context, alert *Alert) error
	// UnacknowledgedAlert returns the open alert for an item, if any.
	UnacknowledgedAlert(ctx context.Context, itemID string) (*Alert, error)
	ListAlerts(ctx context.Context) ([]*Alert, error)
}

// MemoryStore is a mutex-guarded in-memory Store
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[string]*Item
	alerts map[string]*Alert
}

// NewMemoryStore creates an empty in-memory inventory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:  make(map[string]*Item),
		alerts: make(map[string]*Alert),
	}
}

// GetItem returns a copy of the stored item
func (s *MemoryStore) GetItem(_ context.Context, id string) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, errors.Wrap(errors.ErrNotFound, "MemoryStore", "GetItem", "load item "+id)
	}
	out := *item
	return &out, nil
}

// PutItem stores a copy of the item
func (s *MemoryStore) PutItem(_ context.Context, item *Item) error {
	if item.ID == "" {
		return errors.Validationf("item has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *item
	s.items[item.ID] = &stored
	return nil
}

// ListItems returns copies of all items sorted by name
func (s *MemoryStore) ListItems(_ context.Context) ([]*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Item, 0, len(s.items))
	for _, item := range s.items {
		c := *item
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetAlert returns a copy of the stored alert
func (s *MemoryStore) GetAlert(_ context.Context, id string) (*Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alert, ok := s.alerts[id]
	if !ok {
		return nil, errors.Wrap(errors.ErrNotFound, "MemoryStore", "GetAlert", "load alert "+id)
	}
	out := *alert
	return &out, nil
}

// PutAlert stores a copy of the alert
func (s *MemoryStore) PutAlert(_ context.Context, alert *Alert) error {
	if alert.ID == "" {
		return errors.Validationf("alert has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *alert
	s.alerts[alert.ID] = &stored
	return nil
}

// UnacknowledgedAlert returns the open alert for an item, or ErrNotFound
func (s *MemoryStore) UnacknowledgedAlert(_ context.Context, itemID string) (*Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, alert := range s.alerts {
		if alert.ItemID == itemID && !alert.Acknowledged() {
			out := *alert
			return &out, nil
		}
	}
	return nil, errors.Wrap(errors.ErrNotFound, "MemoryStore", "UnacknowledgedAlert", "find open alert for "+itemID)
}

// ListAlerts returns copies of all alerts ordered by creation time
func (s *MemoryStore) ListAlerts(_ context.Context) ([]*Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Alert, 0, len(s.alerts))
	for _, alert := range s.alerts {
		c := *alert
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
