package middleware

import (
	"hub-backend/internal/constants"
	"hub-backend/internal/pkg/apperr"
	"hub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// TargetParam is the route parameter naming the user a request acts on.
const TargetParam = "id"

// AuthorizePermission checks the caller against the rule registered for permission.
// Unconfigured permission -> 500 "Permission configuration error"; denied -> 403.
func AuthorizePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := GetCaller(c)
		if caller == nil {
			return response.Forbidden(c, "Not authenticated")
		}
		if _, ok := constants.PermissionRules[permission]; !ok {
			return response.Error(c, "Permission configuration error", fiber.StatusInternalServerError, nil)
		}
		if !constants.Allowed(permission, caller.Role, caller.UserID.String(), c.Params(TargetParam)) {
			return response.Forbidden(c, "User is Forbidden from performing this action")
		}
		return c.Next()
	}
}

// TargetUserID parses the :id route parameter. A malformed id names no user.
func TargetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(TargetParam))
	if err != nil {
		return uuid.Nil, apperr.NotFoundf("User not found")
	}
	return id, nil
}
