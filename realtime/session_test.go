package realtime

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmrendraTheCoder/go-backend-sub000/auth"
)

func newTestSession(id string, role auth.Role) *Session {
	return &Session{ID: id, UserID: "user-" + id, Role: role}
}

func TestRegistryAddRemove(t *testing.T) {
	r := NewRegistry()

	s := newTestSession("s1", auth.RoleJobCoordinator)
	r.Add(s, []Group{GroupAllUsers, GroupJobCoordinators})

	assert.Equal(t, 1, r.Count())
	got, ok := r.Get("s1")
	require.True(t, ok)
	assert.Equal(t, s, got)
	assert.Equal(t, []Group{GroupAllUsers, GroupJobCoordinators}, r.GroupsOf("s1"))

	require.True(t, r.Remove("s1"))
	assert.Equal(t, 0, r.Count())
	assert.Empty(t, r.Members(GroupAllUsers))
	assert.Empty(t, r.GroupsOf("s1"))
	assert.True(t, s.isDead())

	// Removing twice is harmless
	assert.False(t, r.Remove("s1"))
}

func TestRegistryJoinLeave(t *testing.T) {
	r := NewRegistry()
	s := newTestSession("s1", auth.RoleMachineOperator)
	r.Add(s, []Group{GroupAllUsers})

	require.True(t, r.Join("s1", JobGroup("j-9")))
	assert.Len(t, r.Members(JobGroup("j-9")), 1)

	r.Leave("s1", JobGroup("j-9"))
	assert.Empty(t, r.Members(JobGroup("j-9")))

	// Joining as an unknown session is refused
	assert.False(t, r.Join("ghost", GroupAllUsers))
	assert.Empty(t, r.GroupsOf("ghost"))
}

func TestRegistryGroupIsolation(t *testing.T) {
	r := NewRegistry()

	op1 := newTestSession("op1", auth.RoleMachineOperator)
	op2 := newTestSession("op2", auth.RoleMachineOperator)
	r.Add(op1, []Group{GroupAllUsers, MachineGroup("1")})
	r.Add(op2, []Group{GroupAllUsers, MachineGroup("2")})

	m1 := r.Members(MachineGroup("1"))
	require.Len(t, m1, 1)
	assert.Equal(t, "op1", m1[0].ID)

	m2 := r.Members(MachineGroup("2"))
	require.Len(t, m2, 1)
	assert.Equal(t, "op2", m2[0].ID)

	assert.Len(t, r.Members(GroupAllUsers), 2)
}

func TestRegistryMembersSnapshot(t *testing.T) {
	r := NewRegistry()
	s := newTestSession("s1", auth.RoleManager)
	r.Add(s, []Group{GroupAllUsers})

	snapshot := r.Members(GroupAllUsers)
	require.Len(t, snapshot, 1)

	// Mutating membership after the snapshot does not affect it
	r.Remove("s1")
	assert.Len(t, snapshot, 1)
	assert.Empty(t, r.Members(GroupAllUsers))
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", n)
			s := newTestSession(id, auth.RoleJobCoordinator)
			r.Add(s, []Group{GroupAllUsers, GroupJobCoordinators})
			r.Join(id, JobGroup("shared"))
			_ = r.Members(JobGroup("shared"))
			r.Leave(id, JobGroup("shared"))
			r.Remove(id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, r.Count())
	assert.Empty(t, r.Members(GroupAllUsers))
	assert.Empty(t, r.Members(JobGroup("shared")))
}
