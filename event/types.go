package event

import "encoding/json"

// Type tags an event envelope on the wire. The set is fixed and shared by
// the server and all three client surfaces.
type Type string

// Wire event types
const (
	TypeJobCreated           Type = "job-created"
	TypeJobStatusUpdated     Type = "job-status-updated"
	TypeJobProgressUpdated   Type = "job-progress-updated"
	TypeInventoryUpdated     Type = "inventory-updated"
	TypeStockAlert           Type = "stock-alert"
	TypeMachineStatusUpdated Type = "machine-status-updated"
	TypeQualityCheckAdded    Type = "quality-check-added"
	TypeNotification         Type = "notification"
	TypeBatchUpdate          Type = "batch-update"
)

// Known reports whether t is one of the defined wire event types
func (t Type) Known() bool {
	switch t {
	case TypeJobCreated, TypeJobStatusUpdated, TypeJobProgressUpdated,
		TypeInventoryUpdated, TypeStockAlert, TypeMachineStatusUpdated,
		TypeQualityCheckAdded, TypeNotification, TypeBatchUpdate:
		return true
	}
	return false
}

// NotificationKind is the display class of a notification
type NotificationKind string

// Notification kinds
const (
	NotificationInfo    NotificationKind = "info"
	NotificationWarning NotificationKind = "warning"
	NotificationError   NotificationKind = "error"
	NotificationSuccess NotificationKind = "success"
)

// JobCreated is the payload of a job-created event. Payloads are full
// snapshots, never diffs: a receiver applies them without any prior state.
type JobCreated struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Status        string  `json:"status"`
	Priority      string  `json:"priority"`
	Machine       string  `json:"machine,omitempty"`
	Customer      string  `json:"customer,omitempty"`
	EstimatedCost float64 `json:"estimatedCost,omitempty"`
	CreatedBy     string  `json:"createdBy"`
	CreatedAt     string  `json:"createdAt"`
}

// JobStatusUpdated is the payload of a job-status-updated event
type JobStatusUpdated struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previousStatus"`
	Machine        string `json:"machine,omitempty"`
	UpdatedBy      string `json:"updatedBy"`
	StatusMessage  string `json:"statusMessage,omitempty"`
}

// JobProgressUpdated is the payload of a job-progress-updated event
type JobProgressUpdated struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	Machine            string `json:"machine,omitempty"`
	ProgressPercentage int    `json:"progressPercentage"`
	CurrentStage       string `json:"currentStage,omitempty"`
	UpdatedBy          string `json:"updatedBy"`
}

// InventoryUpdated is the payload of an inventory-updated event
type InventoryUpdated struct {
	ID              string  `json:"id"`
	ItemName        string  `json:"itemName"`
	CurrentQuantity float64 `json:"currentQuantity"`
	Unit            string  `json:"unit,omitempty"`
	ReorderLevel    float64 `json:"reorderLevel"`
	IsLowStock      bool    `json:"isLowStock"`
	Action          string  `json:"action"`
}

// StockAlert is the payload of a stock-alert event
type StockAlert struct {
	ID              string  `json:"id"`
	ItemName        string  `json:"itemName"`
	CurrentQuantity float64 `json:"currentQuantity"`
	ReorderLevel    float64 `json:"reorderLevel"`
	AlertType       string  `json:"alertType"`
	Severity        string  `json:"severity"`
	Message         string  `json:"message"`
}

// MachineStatusUpdated is the payload of a machine-status-updated event
type MachineStatusUpdated struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Status            string `json:"status"`
	CurrentJob        string `json:"currentJob,omitempty"`
	Operator          string `json:"operator,omitempty"`
	MaintenanceStatus string `json:"maintenanceStatus,omitempty"`
}

// QualityCheckAdded is the payload of a quality-check-added event
type QualityCheckAdded struct {
	JobID     string `json:"jobId"`
	JobTitle  string `json:"jobTitle"`
	CheckType string `json:"checkType"`
	Result    string `json:"result"`
	CheckedBy string `json:"checkedBy"`
}

// Notification is the payload of a notification event
type Notification struct {
	Message     string           `json:"message"`
	Kind        NotificationKind `json:"type"`
	Severity    string           `json:"severity,omitempty"`
	Dismissible bool             `json:"dismissible"`
}

// BatchEntry is one event inside a batch-update payload, carrying its own
// type discriminator so receivers can dispatch each entry independently.
type BatchEntry struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// BatchUpdate is the payload of a batch-update event
type BatchUpdate struct {
	Count  int          `json:"count"`
	Events []BatchEntry `json:"events"`
}
