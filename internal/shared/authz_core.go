package shared

import "strings"

// Role is the coarse permission level assigned by the identity provider.
type Role string

// Known roles.
const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RolePartner Role = "partner"
	RoleUser    Role = "user"
)

// ParseRole normalises a claim value, falling back to RoleUser.
func ParseRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleManager:
		return RoleManager
	case RolePartner:
		return RolePartner
	default:
		return RoleUser
	}
}

// BackOfficeRoles may read financial data and manage every record.
func BackOfficeRoles() []Role {
	return []Role{RoleAdmin, RoleManager}
}

// IsBackOffice reports whether the role belongs to admin staff.
func (r Role) IsBackOffice() bool {
	return r == RoleAdmin || r == RoleManager
}
