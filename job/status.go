// Package job implements print job lifecycle management: the status state
// machine, progress tracking with auto-promotion, quality check records, and
// the event emission that follows every successful mutation.
package job

// Status is a job's position in its lifecycle
type Status string

// Job statuses. Transitions move one-directionally along the edges in
// legalEdges; rejected, completed, and cancelled are terminal.
const (
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusRejected   Status = "rejected"
	StatusOnHold     Status = "on-hold"
	StatusCancelled  Status = "cancelled"
)

// legalEdges is the complete transition table. Absence means rejection.
var legalEdges = map[Status][]Status{
	StatusPending:    {StatusApproved, StatusRejected},
	StatusApproved:   {StatusInProgress, StatusOnHold, StatusCancelled},
	StatusInProgress: {StatusOnHold, StatusCompleted, StatusCancelled},
	StatusOnHold:     {StatusInProgress, StatusCancelled},
}

// Valid reports whether s is a defined status
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusInProgress, StatusCompleted,
		StatusRejected, StatusOnHold, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s
func (s Status) Terminal() bool {
	return len(legalEdges[s]) == 0 && s.Valid()
}

// CanTransition reports whether (from, to) is a legal edge
func CanTransition(from, to Status) bool {
	for _, next := range legalEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// requiresReviewer reports whether entering s stamps a review record
func (s Status) requiresReviewer() bool {
	return s == StatusApproved || s == StatusRejected
}

// requiresOperator reports whether entering s is gated on the actor running
// the job's machine (or holding a supervisory role)
func (s Status) requiresOperator() bool {
	return s == StatusInProgress || s == StatusCompleted
}
