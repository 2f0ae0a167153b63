// Package inventory tracks stock items and low-stock alerting. The alert
// invariant: whenever a mutation leaves an item at or below its reorder
// level, exactly one unacknowledged alert exists for that item until someone
// acknowledges it.
package inventory

import "time"

// Item is one stocked material
type Item struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	SKU             string    `json:"sku,omitempty"`
	CurrentQuantity float64   `json:"currentQuantity"`
	Unit            string    `json:"unit,omitempty"`
	ReorderLevel    float64   `json:"reorderLevel"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// LowStock reports whether the item is at or below its reorder level
func (i *Item) LowStock() bool {
	return i.CurrentQuantity <= i.ReorderLevel
}

// Alert severities and types
const (
	AlertLowStock   = "low-stock"
	AlertOutOfStock = "out-of-stock"

	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert is one low-stock marker. An item carries at most one unacknowledged
// alert at a time.
type Alert struct {
	ID              string     `json:"id"`
	ItemID          string     `json:"itemId"`
	ItemName        string     `json:"itemName"`
	CurrentQuantity float64    `json:"currentQuantity"`
	ReorderLevel    float64    `json:"reorderLevel"`
	AlertType       string     `json:"alertType"`
	Severity        string     `json:"severity"`
	Message         string     `json:"message"`
	CreatedAt       time.Time  `json:"createdAt"`
	AcknowledgedBy  string     `json:"acknowledgedBy,omitempty"`
	AcknowledgedAt  *time.Time `json:"acknowledgedAt,omitempty"`
}

// Acknowledged reports whether the alert has been handled
func (a *Alert) Acknowledged() bool {
	return a.AcknowledgedAt != nil
}
