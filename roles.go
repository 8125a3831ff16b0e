package identity

// Role is the user's assigned role
type Role string

const (
	// RoleUnassigned is the initial role every identity starts with. An
	// identity in this state has authenticated but not yet picked a role.
	RoleUnassigned Role = "unassigned"
	// RoleUser is a regular end user
	RoleUser Role = "user"
	// RoleOperator runs routes and deliveries
	RoleOperator Role = "operator"
	// RolePartner is a partner organization account
	RolePartner Role = "partner"
)

// IsValid checks if the role is one of the predefined roles
func (r Role) IsValid() bool {
	switch r {
	case RoleUnassigned, RoleUser, RoleOperator, RolePartner:
		return true
	default:
		return false
	}
}

// IsAssignable reports whether the role can be the target of a role
// selection. Unassigned is an initial state only, never a target.
func (r Role) IsAssignable() bool {
	switch r {
	case RoleUser, RoleOperator, RolePartner:
		return true
	default:
		return false
	}
}

// Selected reports whether the role counts as a completed selection.
func (r Role) Selected() bool {
	return r != RoleUnassigned && r.IsValid()
}

// GetAssignableRoles returns the roles a user may select
func GetAssignableRoles() []Role {
	return []Role{
		RoleUser,
		RoleOperator,
		RolePartner,
	}
}

// ParseRole safely parses a string into a Role type
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, role.IsValid()
}
