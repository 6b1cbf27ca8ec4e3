package constants

import "hub-backend/internal/domain"

const (
	User  = domain.RoleUser
	Admin = domain.RoleAdmin
)

// ValidRoles is the set of allowed values for a user's role.
var ValidRoles = []string{User, Admin}

// IsValidRole returns true if role is one of the allowed values.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
