package job

import (
	"time"
)

// Priority orders the production queue
type Priority string

// Job priorities
const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Review records who approved or rejected a job and why
type Review struct {
	ReviewedBy string    `json:"reviewedBy"`
	ReviewedAt time.Time `json:"reviewedAt"`
	Notes      string    `json:"notes,omitempty"`
	Reason     string    `json:"reason,omitempty"` // mandatory for rejections
}

// QualityCheck is one inspection record attached to a job
type QualityCheck struct {
	ID        string    `json:"id"`
	CheckType string    `json:"checkType"`
	Result    string    `json:"result"`
	Notes     string    `json:"notes,omitempty"`
	CheckedBy string    `json:"checkedBy"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Job is a print job moving through the shop. Machine holds the display
// name of the assigned press ("Machine 1"); Operator is the user id of
// whoever is running it.
type Job struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Status        Status    `json:"status"`
	Priority      Priority  `json:"priority"`
	Machine       string    `json:"machine,omitempty"`
	Operator      string    `json:"operator,omitempty"`
	Customer      string    `json:"customer,omitempty"`
	EstimatedCost float64   `json:"estimatedCost,omitempty"`
	StatusMessage string    `json:"statusMessage,omitempty"`
	CreatedBy     string    `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	Progress     int    `json:"progress"`
	CurrentStage string `json:"currentStage,omitempty"`

	Review        *Review        `json:"review,omitempty"`
	StartedAt     *time.Time     `json:"startedAt,omitempty"`
	CompletedAt   *time.Time     `json:"completedAt,omitempty"`
	QualityChecks []QualityCheck `json:"qualityChecks,omitempty"`
}

// clone returns a deep copy so store snapshots never alias caller state
func (j *Job) clone() *Job {
	out := *j
	if j.Review != nil {
		r := *j.Review
		out.Review = &r
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		out.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		out.CompletedAt = &t
	}
	if j.QualityChecks != nil {
		out.QualityChecks = make([]QualityCheck, len(j.QualityChecks))
		copy(out.QualityChecks, j.QualityChecks)
	}
	return &out
}
