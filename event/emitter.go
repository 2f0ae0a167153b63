package event

import (
	"encoding/json"
	"log/slog"

	"github.com/AmrendraTheCoder/go-backend-sub000/metric"
	"github.com/AmrendraTheCoder/go-backend-sub000/realtime"
)

// Publisher delivers an encoded envelope to every current member of a group.
// Publishing to a group with zero members is a no-op. Implemented by
// realtime.Gateway.
type Publisher interface {
	Publish(group realtime.Group, data []byte) error
}

// Emitter translates domain changes into event envelopes and publishes them
// to the right broadcast groups. Emission is fire-and-forget: publish
// failures are logged and counted but never surfaced to the business
// operation that triggered them.
type Emitter struct {
	pub     Publisher
	logger  *slog.Logger
	metrics *metric.Metrics
	mirror  *Mirror
}

// NewEmitter creates an emitter. logger may not be nil in practice; a nil
// metrics value disables counting (nil-registry pattern).
func NewEmitter(pub Publisher, logger *slog.Logger, metrics *metric.Metrics) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{pub: pub, logger: logger, metrics: metrics}
}

// WithMirror attaches a NATS mirror so each emission is also republished to
// the ops.events subject tree. Returns the emitter for chaining.
func (e *Emitter) WithMirror(m *Mirror) *Emitter {
	e.mirror = m
	return e
}

// jobGroups computes the standard target set for job events: the owning
// functional groups, the assigned machine's group, and the per-job group.
func jobGroups(jobID, machineName string) []realtime.Group {
	groups := []realtime.Group{
		realtime.GroupJobCoordinators,
		realtime.GroupAdministrators,
	}
	if g, ok := realtime.MachineGroupForName(machineName); ok {
		groups = append(groups, g)
	}
	if jobID != "" {
		groups = append(groups, realtime.JobGroup(jobID))
	}
	return groups
}

// JobCreated publishes a job-created event
func (e *Emitter) JobCreated(p JobCreated) {
	e.emit(TypeJobCreated, p.ID, p, jobGroups(p.ID, p.Machine))
}

// JobStatusUpdated publishes a job-status-updated event
func (e *Emitter) JobStatusUpdated(p JobStatusUpdated) {
	e.emit(TypeJobStatusUpdated, p.ID, p, jobGroups(p.ID, p.Machine))
}

// JobProgressUpdated publishes a job-progress-updated event
func (e *Emitter) JobProgressUpdated(p JobProgressUpdated) {
	e.emit(TypeJobProgressUpdated, p.ID, p, jobGroups(p.ID, p.Machine))
}

// InventoryUpdated publishes an inventory-updated event
func (e *Emitter) InventoryUpdated(p InventoryUpdated) {
	e.emit(TypeInventoryUpdated, p.ID, p, []realtime.Group{
		realtime.GroupStockManagement,
		realtime.GroupAdministrators,
	})
}

// StockAlert publishes a stock-alert event
func (e *Emitter) StockAlert(p StockAlert) {
	e.emit(TypeStockAlert, p.ID, p, []realtime.Group{
		realtime.GroupStockManagement,
		realtime.GroupAdministrators,
	})
}

// MachineStatusUpdated publishes a machine-status-updated event
func (e *Emitter) MachineStatusUpdated(p MachineStatusUpdated) {
	groups := []realtime.Group{
		realtime.GroupAdministrators,
		realtime.GroupJobCoordinators,
	}
	if g, ok := realtime.MachineGroupForName(p.ID); ok {
		groups = append(groups, g)
	}
	e.emit(TypeMachineStatusUpdated, p.ID, p, groups)
}

// QualityCheckAdded publishes a quality-check-added event
func (e *Emitter) QualityCheckAdded(p QualityCheckAdded) {
	e.emit(TypeQualityCheckAdded, p.JobID, p, []realtime.Group{
		realtime.GroupJobCoordinators,
		realtime.GroupAdministrators,
		realtime.JobGroup(p.JobID),
	})
}

// Notification publishes a notification event to the given groups,
// defaulting to all-users when none are named.
func (e *Emitter) Notification(p Notification, groups ...realtime.Group) {
	if len(groups) == 0 {
		groups = []realtime.Group{realtime.GroupAllUsers}
	}
	e.emit(TypeNotification, "", p, groups)
}

// EmitBatch publishes a single batch-update envelope containing an ordered
// list of events to the all-users group. Used for coalesced updates.
func (e *Emitter) EmitBatch(entries []BatchEntry) {
	p := BatchUpdate{Count: len(entries), Events: entries}
	e.emit(TypeBatchUpdate, "", p, []realtime.Group{realtime.GroupAllUsers})
}

// BatchEntryFor builds a batch entry from a typed payload
func BatchEntryFor(t Type, payload any) (BatchEntry, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return BatchEntry{}, err
	}
	return BatchEntry{Type: t, Payload: data}, nil
}

// emit builds, encodes, and publishes one envelope to each target group
func (e *Emitter) emit(t Type, entityID string, payload any, groups []realtime.Group) {
	env, err := NewEnvelope(t, payload)
	if err != nil {
		e.logger.Error("build envelope", "event_type", string(t), "entity_id", entityID, "error", err)
		return
	}
	data, err := env.Encode()
	if err != nil {
		e.logger.Error("encode envelope", "event_type", string(t), "entity_id", entityID, "error", err)
		return
	}

	for _, g := range groups {
		if err := e.pub.Publish(g, data); err != nil {
			e.logger.Warn("publish envelope",
				"event_type", string(t),
				"entity_id", entityID,
				"group", g.String(),
				"error", err,
			)
		}
	}

	if e.mirror != nil {
		e.mirror.Emit(t, data)
	}

	if e.metrics != nil {
		e.metrics.EventsEmitted.WithLabelValues(string(t)).Inc()
	}

	e.logger.Info("event emitted",
		"event_type", string(t),
		"entity_id", entityID,
		"groups", groupNames(groups),
	)
}

func groupNames(groups []realtime.Group) []string {
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.String()
	}
	return names
}
