// Package realtime implements the broadcast-group messaging layer: the
// session registry, the role-based group membership resolver, and the
// websocket gateway that fans domain events out to connected shop clients.
package realtime

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/AmrendraTheCoder/go-backend-sub000/auth"
	"github.com/AmrendraTheCoder/go-backend-sub000/errors"
)

// Group is a named broadcast channel. A published envelope reaches every
// session currently a member. Static groups are the constants below; the two
// dynamic families (machine:{id}, job:{id}) are built via constructors so
// free-form room strings never appear outside this file.
type Group string

// Static groups
const (
	GroupAllUsers        Group = "all-users"
	GroupAdministrators  Group = "administrators"
	GroupJobCoordinators Group = "job-coordinators"
	GroupStockManagement Group = "stock-management"
)

const (
	machineGroupPrefix = "machine:"
	jobGroupPrefix     = "job:"
)

// String returns the wire name of the group
func (g Group) String() string {
	return string(g)
}

// IsMachine reports whether the group is a machine:{id} group
func (g Group) IsMachine() bool {
	return strings.HasPrefix(string(g), machineGroupPrefix)
}

// IsJob reports whether the group is a job:{id} group
func (g Group) IsJob() bool {
	return strings.HasPrefix(string(g), jobGroupPrefix)
}

// MachineGroup returns the broadcast group for a machine id
func MachineGroup(machineID string) Group {
	return Group(machineGroupPrefix + machineID)
}

// JobGroup returns the per-job subscription group for a job id
func JobGroup(jobID string) Group {
	return Group(jobGroupPrefix + jobID)
}

// MachineGroupForName maps a machine display name ("Machine 1") or a raw id
// ("1") to its broadcast group. Returns false when no id can be derived.
func MachineGroupForName(name string) (Group, bool) {
	id := machineIDFromName(name)
	if id == "" {
		return "", false
	}
	return MachineGroup(id), true
}

// machineIDFromName extracts the numeric id from a machine display name.
// Tablets and the job store both carry names like "Machine 1"; the broadcast
// groups use the bare id.
func machineIDFromName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	// Already a bare id
	if isDigits(name) {
		return name
	}
	// Take the trailing digit run of the display name
	end := len(name)
	start := end
	for start > 0 && unicode.IsDigit(rune(name[start-1])) {
		start--
	}
	if start == end {
		return ""
	}
	return name[start:end]
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}

// ParseGroup validates a group name received on the wire. Static names must
// match a defined group exactly; dynamic names must carry a non-empty id.
func ParseGroup(name string) (Group, error) {
	switch Group(name) {
	case GroupAllUsers, GroupAdministrators, GroupJobCoordinators, GroupStockManagement:
		return Group(name), nil
	}

	if id, ok := strings.CutPrefix(name, machineGroupPrefix); ok {
		if id == "" {
			return "", errors.Validationf("machine group %q has no id", name)
		}
		return Group(name), nil
	}
	if id, ok := strings.CutPrefix(name, jobGroupPrefix); ok {
		if id == "" {
			return "", errors.Validationf("job group %q has no id", name)
		}
		return Group(name), nil
	}

	return "", errors.Validationf("unknown group %q", name)
}

// ResolveGroups returns the set of groups a role is auto-joined to on
// connect. The table is total: every role, including unknown ones, maps to a
// non-empty set that contains all-users.
func ResolveGroups(role auth.Role, machineID string) []Group {
	switch role {
	case auth.RoleAdministrator, auth.RoleSupervisor:
		return []Group{
			GroupAllUsers,
			GroupAdministrators,
			GroupJobCoordinators,
			GroupStockManagement,
			MachineGroup("1"),
			MachineGroup("2"),
		}
	case auth.RoleManager:
		// Managers share the administrators' functional channels
		return []Group{GroupAllUsers, GroupAdministrators, GroupJobCoordinators}
	case auth.RoleJobCoordinator:
		return []Group{GroupAllUsers, GroupJobCoordinators}
	case auth.RoleMachineOperator:
		groups := []Group{GroupAllUsers}
		if machineID != "" {
			groups = append(groups, MachineGroup(machineID))
		}
		return groups
	case auth.RoleStockManager:
		return []Group{GroupAllUsers, GroupStockManagement}
	default:
		return []Group{GroupAllUsers}
	}
}

// CanJoin reports whether a role may request membership in a group. Manual
// joins are gated by the same table as auto-join, with one addition: any
// authenticated session may subscribe to per-job groups.
func CanJoin(role auth.Role, machineID string, group Group) bool {
	if group.IsJob() {
		return true
	}
	for _, g := range ResolveGroups(role, machineID) {
		if g == group {
			return true
		}
	}
	return false
}

// denyReason builds the human-readable reason sent in room-join-denied acks
func denyReason(role auth.Role, group Group) string {
	return fmt.Sprintf("role %q may not join group %q", role, group)
}

// groupNames converts a group slice to its wire representation
func groupNames(groups []Group) []string {
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.String()
	}
	return names
}
