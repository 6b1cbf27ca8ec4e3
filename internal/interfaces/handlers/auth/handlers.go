package auth

import (
	authsvc "hub-backend/internal/application/auth"
	"hub-backend/internal/application/registration"
	"hub-backend/internal/middleware"
	"hub-backend/internal/pkg/apperr"
	"hub-backend/internal/pkg/response"
	"hub-backend/internal/pkg/wire"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for login and registration endpoints.
type Handlers struct {
	Auth         *authsvc.Service
	Registration *registration.Service
}

// Login GET /login. Returns LoginInfo with a fresh bearer token for the caller.
func (h *Handlers) Login(c *fiber.Ctx) error {
	caller := middleware.GetCaller(c)
	if caller == nil {
		return response.Forbidden(c, "Not authenticated")
	}
	token, err := h.Auth.IssueToken(c.UserContext(), caller)
	if err != nil {
		return response.Fail(c, err)
	}
	log.Info().Str("user_id", caller.UserID.String()).Msg("Issued bearer token")
	return response.Message(c, "Login successful", &wire.LoginInfo{
		Email:     caller.Email,
		UserID:    caller.UserID.String(),
		AuthToken: token,
	})
}

// Logout DELETE /login. Revokes the bearer session used for this request.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	caller := middleware.GetCaller(c)
	if caller == nil {
		return response.Forbidden(c, "Not authenticated")
	}
	jti := middleware.GetSessionJTI(c)
	if jti == "" {
		return response.Fail(c, apperr.Invalidf("Only bearer sessions can be revoked"))
	}
	if err := h.Auth.Revoke(c.UserContext(), caller.UserID, jti); err != nil {
		return response.Fail(c, err)
	}
	return response.NoContent(c)
}

// RegisterOpenID PUT /login/openid/register/:token?key=. Anonymous redemption of an invitation.
func (h *Handlers) RegisterOpenID(c *fiber.Ctx) error {
	u, err := h.Registration.RegisterViaOpenID(c.UserContext(), c.Params("token"), c.Query("key"))
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Message(c, "Registration complete", wire.NewUserInfo(u))
}
