package user

// Role is the closed set of positions in the organization hierarchy.
type Role string

const (
	RoleCEO      Role = "CEO"
	RoleManager  Role = "MANAGER"
	RoleEmployee Role = "EMPLOYEE"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCEO, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// assignableTargets is the assignment matrix keyed by actor role. A single
// constant table instead of conditionals scattered through handlers.
var assignableTargets = map[Role][]Role{
	RoleCEO:      {RoleCEO, RoleManager, RoleEmployee},
	RoleManager:  {RoleEmployee},
	RoleEmployee: {RoleEmployee},
}

// CanAssignTo reports whether an actor with role r may assign work to a
// user with the target role.
func (r Role) CanAssignTo(target Role) bool {
	for _, allowed := range assignableTargets[r] {
		if allowed == target {
			return true
		}
	}
	return false
}

// AssignableRoles returns the roles an actor with role r may assign to.
func (r Role) AssignableRoles() []Role {
	targets := assignableTargets[r]
	out := make([]Role, len(targets))
	copy(out, targets)
	return out
}
