package event

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmrendraTheCoder/go-backend-sub000/realtime"
)

// capturePublisher records every publish call for assertion
type capturePublisher struct {
	mu    sync.Mutex
	calls []publishCall
	fail  bool
}

type publishCall struct {
	group realtime.Group
	data  []byte
}

func (p *capturePublisher) Publish(group realtime.Group, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return fmt.Errorf("session write failed")
	}
	p.calls = append(p.calls, publishCall{group: group, data: data})
	return nil
}

func (p *capturePublisher) groups() []realtime.Group {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]realtime.Group, len(p.calls))
	for i, c := range p.calls {
		out[i] = c.group
	}
	return out
}

func TestEmitterJobEventTargets(t *testing.T) {
	pub := &capturePublisher{}
	e := NewEmitter(pub, nil, nil)

	e.JobCreated(JobCreated{ID: "job-1", Title: "Flyers", Machine: "Machine 1"})

	assert.ElementsMatch(t, []realtime.Group{
		realtime.GroupJobCoordinators,
		realtime.GroupAdministrators,
		realtime.MachineGroup("1"),
		realtime.JobGroup("job-1"),
	}, pub.groups())

	// Every target receives the identical encoded envelope
	for _, c := range pub.calls[1:] {
		assert.Equal(t, pub.calls[0].data, c.data)
	}
}

func TestEmitterJobEventWithoutMachine(t *testing.T) {
	pub := &capturePublisher{}
	e := NewEmitter(pub, nil, nil)

	e.JobStatusUpdated(JobStatusUpdated{ID: "job-2", Status: "approved", PreviousStatus: "pending"})

	assert.ElementsMatch(t, []realtime.Group{
		realtime.GroupJobCoordinators,
		realtime.GroupAdministrators,
		realtime.JobGroup("job-2"),
	}, pub.groups())
}

func TestEmitterInventoryTargets(t *testing.T) {
	pub := &capturePublisher{}
	e := NewEmitter(pub, nil, nil)

	e.InventoryUpdated(InventoryUpdated{ID: "paper-a4", ItemName: "A4 Paper"})
	assert.ElementsMatch(t, []realtime.Group{
		realtime.GroupStockManagement,
		realtime.GroupAdministrators,
	}, pub.groups())

	pub.calls = nil
	e.StockAlert(StockAlert{ID: "paper-a4", ItemName: "A4 Paper", AlertType: "low-stock"})
	assert.ElementsMatch(t, []realtime.Group{
		realtime.GroupStockManagement,
		realtime.GroupAdministrators,
	}, pub.groups())
}

func TestEmitterMachineStatusTargets(t *testing.T) {
	pub := &capturePublisher{}
	e := NewEmitter(pub, nil, nil)

	e.MachineStatusUpdated(MachineStatusUpdated{ID: "2", Name: "Machine 2", Status: "maintenance"})

	assert.ElementsMatch(t, []realtime.Group{
		realtime.GroupAdministrators,
		realtime.GroupJobCoordinators,
		realtime.MachineGroup("2"),
	}, pub.groups())
}

func TestEmitterQualityCheckTargets(t *testing.T) {
	pub := &capturePublisher{}
	e := NewEmitter(pub, nil, nil)

	e.QualityCheckAdded(QualityCheckAdded{JobID: "job-3", CheckType: "color", Result: "pass"})

	assert.ElementsMatch(t, []realtime.Group{
		realtime.GroupJobCoordinators,
		realtime.GroupAdministrators,
		realtime.JobGroup("job-3"),
	}, pub.groups())
}

func TestEmitterNotificationDefaultsToAllUsers(t *testing.T) {
	pub := &capturePublisher{}
	e := NewEmitter(pub, nil, nil)

	e.Notification(Notification{Message: "Printer toner replaced", Kind: NotificationInfo})
	assert.Equal(t, []realtime.Group{realtime.GroupAllUsers}, pub.groups())

	pub.calls = nil
	e.Notification(Notification{Message: "Review queue backed up", Kind: NotificationWarning},
		realtime.GroupAdministrators)
	assert.Equal(t, []realtime.Group{realtime.GroupAdministrators}, pub.groups())
}

func TestEmitterBatch(t *testing.T) {
	pub := &capturePublisher{}
	e := NewEmitter(pub, nil, nil)

	e1, err := BatchEntryFor(TypeJobProgressUpdated, JobProgressUpdated{ID: "job-1", ProgressPercentage: 50})
	require.NoError(t, err)
	e2, err := BatchEntryFor(TypeJobProgressUpdated, JobProgressUpdated{ID: "job-2", ProgressPercentage: 75})
	require.NoError(t, err)

	e.EmitBatch([]BatchEntry{e1, e2})

	require.Len(t, pub.calls, 1)
	assert.Equal(t, realtime.GroupAllUsers, pub.calls[0].group)

	env, err := Decode(pub.calls[0].data)
	require.NoError(t, err)
	payload, err := env.DecodePayload()
	require.NoError(t, err)
	batch := payload.(BatchUpdate)
	assert.Equal(t, 2, batch.Count)
	assert.Len(t, batch.Events, 2)
}

func TestEmitterPublishFailureDoesNotPanic(t *testing.T) {
	pub := &capturePublisher{fail: true}
	e := NewEmitter(pub, nil, nil)

	// Emission is fire-and-forget; a failing publisher is logged, not raised
	assert.NotPanics(t, func() {
		e.JobCreated(JobCreated{ID: "job-1", Machine: "Machine 1"})
	})
}
