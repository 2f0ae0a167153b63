package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/AmrendraTheCoder/go-backend-sub000/auth"
	"github.com/AmrendraTheCoder/go-backend-sub000/errors"
	"github.com/AmrendraTheCoder/go-backend-sub000/event"
)

// Emitter is the slice of the event emitter the inventory service uses.
// Satisfied by *event.Emitter.
type Emitter interface {
	InventoryUpdated(event.InventoryUpdated)
	StockAlert(event.StockAlert)
}

// Inventory mutation actions carried on the wire
const (
	ActionWithdraw = "withdraw"
	ActionRestock  = "restock"
	ActionAdjust   = "adjust"
)

// CreateItemParams are the caller-supplied fields of a new item
type CreateItemParams struct {
	Name            string
	SKU             string
	CurrentQuantity float64
	Unit            string
	ReorderLevel    float64
}

// Service owns inventory mutations and the low-stock alert lifecycle
type Service struct {
	store   Store
	emitter Emitter
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates an inventory service
func NewService(store Store, emitter Emitter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		emitter: emitter,
		logger:  logger.With("component", "inventory"),
		now:     time.Now,
	}
}

// CreateItem registers a new stock item
func (s *Service) CreateItem(ctx context.Context, p CreateItemParams) (*Item, error) {
	if p.Name == "" {
		return nil, errors.Validationf("item name is required")
	}
	if p.CurrentQuantity < 0 {
		return nil, errors.Validationf("quantity may not be negative")
	}

	item := &Item{
		ID:              uuid.NewString(),
		Name:            p.Name,
		SKU:             p.SKU,
		CurrentQuantity: p.CurrentQuantity,
		Unit:            p.Unit,
		ReorderLevel:    p.ReorderLevel,
		UpdatedAt:       s.now(),
	}
	if err := s.store.PutItem(ctx, item); err != nil {
		return nil, errors.Wrap(err, "Service", "CreateItem", "persist item")
	}
	return item, nil
}

// GetItem loads one item
func (s *Service) GetItem(ctx context.Context, id string) (*Item, error) {
	return s.store.GetItem(ctx, id)
}

// ListItems returns all items
func (s *Service) ListItems(ctx context.Context) ([]*Item, error) {
	return s.store.ListItems(ctx)
}

// ListAlerts returns all alerts
func (s *Service) ListAlerts(ctx context.Context) ([]*Alert, error) {
	return s.store.ListAlerts(ctx)
}

// Adjust applies a quantity delta to an item. Every successful adjustment
// emits an inventory-updated event; crossing into low stock additionally
// raises an alert unless the item already has an unacknowledged one.
func (s *Service) Adjust(ctx context.Context, itemID string, delta float64, action string, actor auth.Actor) (*Item, error) {
	if action == "" {
		action = ActionAdjust
	}

	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	next := item.CurrentQuantity + delta
	if next < 0 {
		return nil, errors.Validationf("adjustment of %v would leave %q at %v", delta, item.Name, next)
	}

	item.CurrentQuantity = next
	item.UpdatedAt = s.now()

	if err := s.store.PutItem(ctx, item); err != nil {
		return nil, errors.Wrap(err, "Service", "Adjust", "persist item")
	}

	s.emitter.InventoryUpdated(event.InventoryUpdated{
		ID:              item.ID,
		ItemName:        item.Name,
		CurrentQuantity: item.CurrentQuantity,
		Unit:            item.Unit,
		ReorderLevel:    item.ReorderLevel,
		IsLowStock:      item.LowStock(),
		Action:          action,
	})

	s.logger.Info("inventory adjusted",
		"item_id", item.ID,
		"delta", delta,
		"quantity", item.CurrentQuantity,
		"action", action,
		"actor", actor.ID,
	)

	if item.LowStock() {
		if err := s.raiseAlert(ctx, item); err != nil {
			return nil, err
		}
	}
	return item, nil
}

// Restock is a positive adjustment with the restock action label
func (s *Service) Restock(ctx context.Context, itemID string, quantity float64, actor auth.Actor) (*Item, error) {
	if quantity <= 0 {
		return nil, errors.Validationf("restock quantity must be positive")
	}
	return s.Adjust(ctx, itemID, quantity, ActionRestock, actor)
}

// Withdraw is a negative adjustment with the withdraw action label
func (s *Service) Withdraw(ctx context.Context, itemID string, quantity float64, actor auth.Actor) (*Item, error) {
	if quantity <= 0 {
		return nil, errors.Validationf("withdrawal quantity must be positive")
	}
	return s.Adjust(ctx, itemID, -quantity, ActionWithdraw, actor)
}

// raiseAlert creates a low-stock alert unless an unacknowledged one already
// exists for the item. Emits stock-alert only when a new alert is created.
func (s *Service) raiseAlert(ctx context.Context, item *Item) error {
	if _, err := s.store.UnacknowledgedAlert(ctx, item.ID); err == nil {
		// Open alert exists; the dedup invariant forbids a second one
		return nil
	} else if !errors.IsNotFound(err) {
		return errors.Wrap(err, "Service", "raiseAlert", "check open alerts")
	}

	alertType := AlertLowStock
	severity := SeverityWarning
	if item.CurrentQuantity <= 0 {
		alertType = AlertOutOfStock
		severity = SeverityCritical
	}

	alert := &Alert{
		ID:              uuid.NewString(),
		ItemID:          item.ID,
		ItemName:        item.Name,
		CurrentQuantity: item.CurrentQuantity,
		ReorderLevel:    item.ReorderLevel,
		AlertType:       alertType,
		Severity:        severity,
		Message:         fmt.Sprintf("%s is at %v %s (reorder level %v)", item.Name, item.CurrentQuantity, item.Unit, item.ReorderLevel),
		CreatedAt:       s.now(),
	}
	if err := s.store.PutAlert(ctx, alert); err != nil {
		return errors.Wrap(err, "Service", "raiseAlert", "persist alert")
	}

	s.emitter.StockAlert(event.StockAlert{
		ID:              alert.ID,
		ItemName:        alert.ItemName,
		CurrentQuantity: alert.CurrentQuantity,
		ReorderLevel:    alert.ReorderLevel,
		AlertType:       alert.AlertType,
		Severity:        alert.Severity,
		Message:         alert.Message,
	})

	s.logger.Warn("stock alert raised",
		"item_id", item.ID,
		"quantity", item.CurrentQuantity,
		"reorder_level", item.ReorderLevel,
		"severity", severity,
	)
	return nil
}

// AcknowledgeAlert marks an alert handled, clearing the way for a future
// low-stock mutation to raise a fresh one.
func (s *Service) AcknowledgeAlert(ctx context.Context, alertID string, actor auth.Actor) (*Alert, error) {
	alert, err := s.store.GetAlert(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if alert.Acknowledged() {
		return alert, nil
	}

	now := s.now()
	alert.AcknowledgedBy = actor.ID
	alert.AcknowledgedAt = &now
	if err := s.store.PutAlert(ctx, alert); err != nil {
		return nil, errors.Wrap(err, "Service", "AcknowledgeAlert", "persist alert")
	}

	s.logger.Info("stock alert acknowledged", "alert_id", alert.ID, "actor", actor.ID)
	return alert, nil
}
