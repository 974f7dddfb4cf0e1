/*
Package roster models the staff snapshot the engine reconciles against.

Staff management (hiring, editing, sub-group assignment) is out of scope;
callers supply the roster as read-only data. The engine only needs three
facts per person: which duty group they serve in, which rest sub-group
they belong to, and whether their role excludes them from billable
head-counts (the shared communal identity and elevated administrators
never pay quota).
*/
package roster

import "github.com/warp/rota-engine/rota"

// Role classifies a roster member for head-count purposes.
type Role string

const (
	// RoleStaff is a regular duty member, counted in quotas.
	RoleStaff Role = "staff"
	// RoleCommunal is the shared placeholder identity used to book communal
	// consumption. Never counted as a paying head.
	RoleCommunal Role = "communal"
	// RoleAdmin is an elevated administrative role, excluded from quotas.
	RoleAdmin Role = "admin"
)

// Member is one person on the roster.
type Member struct {
	ID       string
	Name     string
	Group    rota.DutyGroup
	SubGroup int // rest sub-group, 1..8
	Role     Role
}

// QuotaExempt reports whether the member is excluded from paying
// head-counts regardless of attendance status.
func (m Member) QuotaExempt() bool {
	return m.Role == RoleCommunal || m.Role == RoleAdmin
}

// Roster is a read-only staff snapshot.
type Roster []Member

// MembersOf returns the members serving in a duty group.
func (r Roster) MembersOf(group rota.DutyGroup) []Member {
	var out []Member
	for _, m := range r {
		if m.Group == group {
			out = append(out, m)
		}
	}
	return out
}

// Lookup finds a member by id. Second result is false if absent.
func (r Roster) Lookup(id string) (Member, bool) {
	for _, m := range r {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// GroupOf returns the duty group a person serves in; false if the person
// is not on the roster.
func (r Roster) GroupOf(id string) (rota.DutyGroup, bool) {
	m, ok := r.Lookup(id)
	return m.Group, ok
}
