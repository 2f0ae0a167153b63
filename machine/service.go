package machine

import (
	"context"
	"log/slog"
	"time"

	"github.com/AmrendraTheCoder/go-backend-sub000/auth"
	"github.com/AmrendraTheCoder/go-backend-sub000/errors"
	"github.com/AmrendraTheCoder/go-backend-sub000/event"
)

// Emitter is the slice of the event emitter the machine service uses.
// Satisfied by *event.Emitter.
type Emitter interface {
	MachineStatusUpdated(event.MachineStatusUpdated)
}

// Service owns machine status and assignment mutations
type Service struct {
	store   Store
	emitter Emitter
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a machine service
func NewService(store Store, emitter Emitter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		emitter: emitter,
		logger:  logger.With("component", "machine"),
		now:     time.Now,
	}
}

// Register adds a machine to the floor in idle status
func (s *Service) Register(ctx context.Context, id, name string) (*Machine, error) {
	if id == "" || name == "" {
		return nil, errors.Validationf("machine requires an id and a name")
	}

	m := &Machine{
		ID:        id,
		Name:      name,
		Status:    StatusIdle,
		UpdatedAt: s.now(),
	}
	if err := s.store.Put(ctx, m); err != nil {
		return nil, errors.Wrap(err, "Service", "Register", "persist machine")
	}
	return m, nil
}

// Get loads one machine
func (s *Service) Get(ctx context.Context, id string) (*Machine, error) {
	return s.store.Get(ctx, id)
}

// List returns all machines
func (s *Service) List(ctx context.Context) ([]*Machine, error) {
	return s.store.List(ctx)
}

// SetStatus changes a machine's operational state. Operators may only touch
// their own machine; supervisory roles may touch any.
func (s *Service) SetStatus(ctx context.Context, id string, status MachineStatus, maintenanceNote string, actor auth.Actor) (*Machine, error) {
	if !status.Valid() {
		return nil, errors.Validationf("unknown machine status %q", status)
	}
	if !s.mayControl(actor, id) {
		return nil, errors.Forbiddenf("actor %q may not control machine %q", actor.ID, id)
	}

	m, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	m.Status = status
	m.MaintenanceStatus = maintenanceNote
	if status != StatusRunning {
		m.CurrentJob = ""
	}
	m.UpdatedAt = s.now()

	if err := s.store.Put(ctx, m); err != nil {
		return nil, errors.Wrap(err, "Service", "SetStatus", "persist machine")
	}

	s.emit(m)
	s.logger.Info("machine status changed",
		"machine_id", m.ID,
		"status", string(status),
		"actor", actor.ID,
	)
	return m, nil
}

// AssignJob puts a job on a machine and marks it running
func (s *Service) AssignJob(ctx context.Context, id, jobID string, actor auth.Actor) (*Machine, error) {
	if jobID == "" {
		return nil, errors.Validationf("job id is required")
	}
	if !s.mayControl(actor, id) {
		return nil, errors.Forbiddenf("actor %q may not control machine %q", actor.ID, id)
	}

	m, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Status == StatusMaintenance || m.Status == StatusOffline {
		return nil, errors.IllegalTransitionf("machine %q is %s", id, m.Status)
	}

	m.CurrentJob = jobID
	m.Status = StatusRunning
	m.Operator = actor.ID
	m.UpdatedAt = s.now()

	if err := s.store.Put(ctx, m); err != nil {
		return nil, errors.Wrap(err, "Service", "AssignJob", "persist machine")
	}

	s.emit(m)
	return m, nil
}

// mayControl reports whether the actor can mutate the machine
func (s *Service) mayControl(actor auth.Actor, machineID string) bool {
	if actor.Role.CanReview() {
		return true
	}
	return actor.Role == auth.RoleMachineOperator && actor.MachineID == machineID
}

func (s *Service) emit(m *Machine) {
	s.emitter.MachineStatusUpdated(event.MachineStatusUpdated{
		ID:                m.ID,
		Name:              m.Name,
		Status:            string(m.Status),
		CurrentJob:        m.CurrentJob,
		Operator:          m.Operator,
		MaintenanceStatus: m.MaintenanceStatus,
	})
}
