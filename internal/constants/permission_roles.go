package constants

import (
	pkgconstants "hub-backend/internal/pkg/constants"

	"github.com/google/uuid"
)

// Rule is how a permission is granted.
type Rule int

const (
	// AnyCaller: every authenticated caller.
	AnyCaller Rule = iota + 1
	// SelfOnly: the caller is the user named by the :id path param. Admins are not exempt.
	SelfOnly
	// SelfOrAdmin: the caller is the :id user, or an admin.
	SelfOrAdmin
	// AdminOnly: admins.
	AdminOnly
)

// PermissionRules maps each permission to its rule. Kept explicit per endpoint.
var PermissionRules = map[string]Rule{
	ReadProfile:        AnyCaller,
	IdentifyCaller:     AnyCaller,
	ViewProducts:       AnyCaller,
	RegisterUser:       AdminOnly,
	RemoveUser:         AdminOnly,
	ViewConnections:    SelfOrAdmin,
	ManageConnections:  SelfOrAdmin,
	InviteUser:         SelfOnly,
	ManageSubscription: SelfOrAdmin,
	ViewSubscription:   SelfOrAdmin,
}

// Allowed reports whether a caller with role and id may use permission on targetID.
// targetID is empty for endpoints without a user path param. Ids are compared
// as parsed UUIDs, so letter case in the path does not matter.
func Allowed(permission, role, callerID, targetID string) bool {
	rule, ok := PermissionRules[permission]
	if !ok {
		return false
	}
	isAdmin := role == pkgconstants.Admin
	isSelf := sameUser(callerID, targetID)
	switch rule {
	case AnyCaller:
		return true
	case SelfOnly:
		return isSelf
	case SelfOrAdmin:
		return isSelf || isAdmin
	case AdminOnly:
		return isAdmin
	}
	return false
}

func sameUser(callerID, targetID string) bool {
	caller, err := uuid.Parse(callerID)
	if err != nil {
		return false
	}
	target, err := uuid.Parse(targetID)
	if err != nil {
		return false
	}
	return caller == target
}
