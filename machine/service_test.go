package machine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmrendraTheCoder/go-backend-sub000/auth"
	"github.com/AmrendraTheCoder/go-backend-sub000/errors"
	"github.com/AmrendraTheCoder/go-backend-sub000/event"
)

type recordingEmitter struct {
	updates []event.MachineStatusUpdated
}

func (r *recordingEmitter) MachineStatusUpdated(p event.MachineStatusUpdated) {
	r.updates = append(r.updates, p)
}

var (
	admin    = auth.Actor{ID: "admin-1", Role: auth.RoleAdministrator}
	operator = auth.Actor{ID: "op-1", Role: auth.RoleMachineOperator, MachineID: "1"}
)

func setup(t *testing.T) (*Service, *recordingEmitter, *Machine) {
	t.Helper()
	rec := &recordingEmitter{}
	svc := NewService(NewMemoryStore(), rec, nil)
	m, err := svc.Register(context.Background(), "1", "Machine 1")
	require.NoError(t, err)
	return svc, rec, m
}

func TestSetStatus(t *testing.T) {
	svc, rec, m := setup(t)

	updated, err := svc.SetStatus(context.Background(), m.ID, StatusMaintenance, "roller swap", admin)
	require.NoError(t, err)
	assert.Equal(t, StatusMaintenance, updated.Status)
	assert.Equal(t, "roller swap", updated.MaintenanceStatus)

	require.Len(t, rec.updates, 1)
	assert.Equal(t, "maintenance", rec.updates[0].Status)
	assert.Equal(t, "Machine 1", rec.updates[0].Name)
}

func TestSetStatusOwnMachineOnly(t *testing.T) {
	svc, rec, m := setup(t)

	// The bound operator may control their machine
	_, err := svc.SetStatus(context.Background(), m.ID, StatusIdle, "", operator)
	require.NoError(t, err)

	// An operator bound elsewhere may not
	other := auth.Actor{ID: "op-2", Role: auth.RoleMachineOperator, MachineID: "2"}
	_, err = svc.SetStatus(context.Background(), m.ID, StatusOffline, "", other)
	assert.True(t, errors.IsForbidden(err))
	assert.Len(t, rec.updates, 1)
}

func TestSetStatusUnknownStatus(t *testing.T) {
	svc, _, m := setup(t)

	_, err := svc.SetStatus(context.Background(), m.ID, MachineStatus("sleeping"), "", admin)
	assert.True(t, errors.IsValidation(err))
}

func TestAssignJob(t *testing.T) {
	svc, rec, m := setup(t)

	updated, err := svc.AssignJob(context.Background(), m.ID, "job-9", operator)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, updated.Status)
	assert.Equal(t, "job-9", updated.CurrentJob)
	assert.Equal(t, operator.ID, updated.Operator)

	require.Len(t, rec.updates, 1)
	assert.Equal(t, "job-9", rec.updates[0].CurrentJob)
}

func TestAssignJobRefusedInMaintenance(t *testing.T) {
	svc, _, m := setup(t)

	_, err := svc.SetStatus(context.Background(), m.ID, StatusMaintenance, "", admin)
	require.NoError(t, err)

	_, err = svc.AssignJob(context.Background(), m.ID, "job-9", admin)
	assert.True(t, errors.IsIllegalTransition(err))
}

func TestLeavingRunningClearsJob(t *testing.T) {
	svc, _, m := setup(t)

	_, err := svc.AssignJob(context.Background(), m.ID, "job-9", operator)
	require.NoError(t, err)

	updated, err := svc.SetStatus(context.Background(), m.ID, StatusIdle, "", operator)
	require.NoError(t, err)
	assert.Empty(t, updated.CurrentJob)
}
