// Package identity holds RMS users, their branch role assignments and the
// per-request actor derived from them.
package identity

// Role is an RMS role granted to a user for one branch
type Role string

const (
	RoleCustomer      Role = "CUSTOMER"
	RoleWarehouse     Role = "WAREHOUSE"
	RoleQC            Role = "QC"
	RoleFinance       Role = "FINANCE"
	RoleReturnsAgent  Role = "RETURNS_AGENT"
	RoleBranchManager Role = "BRANCH_MANAGER"
	RoleAdmin         Role = "ADMIN"
)

// rolePriority lists roles from lowest to highest priority.
var rolePriority = []Role{
	RoleCustomer,
	RoleWarehouse,
	RoleQC,
	RoleFinance,
	RoleReturnsAgent,
	RoleBranchManager,
	RoleAdmin,
}

// AllRoles returns every role in ascending priority order
func AllRoles() []Role {
	out := make([]Role, len(rolePriority))
	copy(out, rolePriority)
	return out
}

// IsValid checks if the role is a known RMS role
func (r Role) IsValid() bool {
	return r.priority() >= 0
}

// String returns the string representation
func (r Role) String() string {
	return string(r)
}

func (r Role) priority() int {
	for i, candidate := range rolePriority {
		if candidate == r {
			return i
		}
	}
	return -1
}

// ResolvePrimaryRole returns the highest-priority role among roles.
// Unknown roles are ignored; ok is false when no known role is present.
func ResolvePrimaryRole(roles []Role) (primary Role, ok bool) {
	best := -1
	for _, r := range roles {
		if p := r.priority(); p > best {
			best = p
			primary = r
		}
	}
	return primary, best >= 0
}
