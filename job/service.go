package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/AmrendraTheCoder/go-backend-sub000/auth"
	"github.com/AmrendraTheCoder/go-backend-sub000/errors"
	"github.com/AmrendraTheCoder/go-backend-sub000/event"
	"github.com/AmrendraTheCoder/go-backend-sub000/realtime"
)

// Emitter is the slice of the event emitter the job service uses.
// Satisfied by *event.Emitter.
type Emitter interface {
	JobCreated(event.JobCreated)
	JobStatusUpdated(event.JobStatusUpdated)
	JobProgressUpdated(event.JobProgressUpdated)
	QualityCheckAdded(event.QualityCheckAdded)
}

// CreateParams are the caller-supplied fields of a new job
type CreateParams struct {
	Title         string
	Priority      Priority
	Machine       string
	Customer      string
	EstimatedCost float64
}

// TransitionMeta carries the optional fields of a status transition.
// Reason is mandatory when the target status is rejected.
type TransitionMeta struct {
	Reason        string
	Notes         string
	StatusMessage string
}

// Service owns job mutations. Every successful mutation persists first and
// emits its event second; a rejected or failed mutation never emits.
type Service struct {
	store   Store
	emitter Emitter
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a job service
func NewService(store Store, emitter Emitter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		emitter: emitter,
		logger:  logger.With("component", "job"),
		now:     time.Now,
	}
}

// Create registers a new job in pending status
func (s *Service) Create(ctx context.Context, p CreateParams, actor auth.Actor) (*Job, error) {
	if p.Title == "" {
		return nil, errors.Validationf("job title is required")
	}
	if p.Priority == "" {
		p.Priority = PriorityNormal
	}

	now := s.now()
	j := &Job{
		ID:            uuid.NewString(),
		Title:         p.Title,
		Status:        StatusPending,
		Priority:      p.Priority,
		Machine:       p.Machine,
		Customer:      p.Customer,
		EstimatedCost: p.EstimatedCost,
		CreatedBy:     actor.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.Put(ctx, j); err != nil {
		return nil, errors.Wrap(err, "Service", "Create", "persist job")
	}

	s.emitter.JobCreated(event.JobCreated{
		ID:            j.ID,
		Title:         j.Title,
		Status:        string(j.Status),
		Priority:      string(j.Priority),
		Machine:       j.Machine,
		Customer:      j.Customer,
		EstimatedCost: j.EstimatedCost,
		CreatedBy:     j.CreatedBy,
		CreatedAt:     j.CreatedAt.UTC().Format(time.RFC3339),
	})

	s.logger.Info("job created", "job_id", j.ID, "title", j.Title, "created_by", actor.ID)
	return j, nil
}

// Get loads one job
func (s *Service) Get(ctx context.Context, id string) (*Job, error) {
	return s.store.Get(ctx, id)
}

// List returns all jobs
func (s *Service) List(ctx context.Context) ([]*Job, error) {
	return s.store.List(ctx)
}

// Transition moves a job along one legal status edge. The edge check runs
// before the permission check; both run before any mutation, so a rejected
// transition leaves the stored job untouched and emits nothing.
func (s *Service) Transition(ctx context.Context, jobID string, target Status, actor auth.Actor, meta TransitionMeta) (*Job, error) {
	if !target.Valid() {
		return nil, errors.Validationf("unknown status %q", target)
	}

	j, err := s.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if !CanTransition(j.Status, target) {
		return nil, errors.IllegalTransitionf("%s -> %s", j.Status, target)
	}

	if target.requiresReviewer() && !actor.Role.CanReview() {
		return nil, errors.Forbiddenf("role %q may not review jobs", actor.Role)
	}
	if target.requiresOperator() && !s.mayOperate(actor, j) {
		return nil, errors.Forbiddenf("actor %q may not run job %q", actor.ID, j.ID)
	}
	if target == StatusRejected && meta.Reason == "" {
		return nil, errors.Validationf("rejection requires a reason")
	}

	now := s.now()
	prev := j.Status
	j.Status = target
	j.UpdatedAt = now
	j.StatusMessage = meta.StatusMessage

	if target.requiresReviewer() {
		j.Review = &Review{
			ReviewedBy: actor.ID,
			ReviewedAt: now,
			Notes:      meta.Notes,
			Reason:     meta.Reason,
		}
	}
	if target == StatusInProgress && j.StartedAt == nil {
		j.StartedAt = &now
		if j.Operator == "" {
			j.Operator = actor.ID
		}
	}
	if target == StatusCompleted {
		j.CompletedAt = &now
		if j.StartedAt == nil {
			j.StartedAt = &now
		}
	}

	if err := s.store.Put(ctx, j); err != nil {
		return nil, errors.Wrap(err, "Service", "Transition", "persist job")
	}

	s.emitter.JobStatusUpdated(event.JobStatusUpdated{
		ID:             j.ID,
		Title:          j.Title,
		Status:         string(j.Status),
		PreviousStatus: string(prev),
		Machine:        j.Machine,
		UpdatedBy:      actor.ID,
		StatusMessage:  j.StatusMessage,
	})

	s.logger.Info("job status changed",
		"job_id", j.ID,
		"from", string(prev),
		"to", string(target),
		"actor", actor.ID,
	)
	return j, nil
}

// mayOperate reports whether the actor can run the job: supervisory roles
// always can; otherwise the actor must be the assigned operator or be bound
// to the job's assigned machine.
func (s *Service) mayOperate(actor auth.Actor, j *Job) bool {
	if actor.Role.CanReview() {
		return true
	}
	if j.Operator != "" && actor.ID == j.Operator {
		return true
	}
	if actor.MachineID != "" {
		if g, ok := realtime.MachineGroupForName(j.Machine); ok {
			return g == realtime.MachineGroup(actor.MachineID)
		}
	}
	return false
}

// UpdateProgress records a job's completion percentage and stage. Two
// auto-promotions route through Transition so its role checks still apply:
// approved jobs with positive progress enter in-progress, and in-progress
// jobs reaching 100 percent enter completed. Repeating a percentage re-emits
// the progress event but never a second status event.
func (s *Service) UpdateProgress(ctx context.Context, jobID string, percentage int, stage string, actor auth.Actor) (*Job, error) {
	if percentage < 0 || percentage > 100 {
		return nil, errors.Validationf("percentage %d out of range", percentage)
	}

	j, err := s.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if j.Status == StatusApproved && percentage > 0 {
		if j, err = s.Transition(ctx, jobID, StatusInProgress, actor, TransitionMeta{}); err != nil {
			return nil, err
		}
	}

	j.Progress = percentage
	if stage != "" {
		j.CurrentStage = stage
	}
	j.UpdatedAt = s.now()

	if err := s.store.Put(ctx, j); err != nil {
		return nil, errors.Wrap(err, "Service", "UpdateProgress", "persist job")
	}

	s.emitter.JobProgressUpdated(event.JobProgressUpdated{
		ID:                 j.ID,
		Title:              j.Title,
		Machine:            j.Machine,
		ProgressPercentage: j.Progress,
		CurrentStage:       j.CurrentStage,
		UpdatedBy:          actor.ID,
	})

	if percentage == 100 && j.Status == StatusInProgress {
		if j, err = s.Transition(ctx, jobID, StatusCompleted, actor, TransitionMeta{}); err != nil {
			return nil, err
		}
	}

	return j, nil
}

// AddQualityCheck attaches an inspection record to a job
func (s *Service) AddQualityCheck(ctx context.Context, jobID, checkType, result, notes string, actor auth.Actor) (*Job, error) {
	if checkType == "" || result == "" {
		return nil, errors.Validationf("quality check requires a type and a result")
	}

	j, err := s.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	j.QualityChecks = append(j.QualityChecks, QualityCheck{
		ID:        uuid.NewString(),
		CheckType: checkType,
		Result:    result,
		Notes:     notes,
		CheckedBy: actor.ID,
		CheckedAt: now,
	})
	j.UpdatedAt = now

	if err := s.store.Put(ctx, j); err != nil {
		return nil, errors.Wrap(err, "Service", "AddQualityCheck", "persist job")
	}

	s.emitter.QualityCheckAdded(event.QualityCheckAdded{
		JobID:     j.ID,
		JobTitle:  j.Title,
		CheckType: checkType,
		Result:    result,
		CheckedBy: actor.ID,
	})

	return j, nil
}
