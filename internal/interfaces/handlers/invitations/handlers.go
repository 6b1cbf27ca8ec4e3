package invitations

import (
	"net/url"

	invsvc "hub-backend/internal/application/invitations"
	"hub-backend/internal/middleware"
	"hub-backend/internal/pkg/apperr"
	"hub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *invsvc.Service
}

// Invite PUT /users/:id/invite/:email. Spends one of the caller's credits.
// The key only travels by mail; the response carries no invitation detail.
func (h *Handlers) Invite(c *fiber.Ctx) error {
	inviter, err := middleware.TargetUserID(c)
	if err != nil {
		return response.Fail(c, err)
	}
	email, err := url.PathUnescape(c.Params("email"))
	if err != nil {
		return response.Fail(c, apperr.Invalidf("Invalid email"))
	}
	if _, err := h.Service.Invite(c.UserContext(), inviter, email); err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Invitation sent", nil, nil)
}

// Prospect PUT /prospects/:email. Anonymous.
func (h *Handlers) Prospect(c *fiber.Ctx) error {
	email, err := url.PathUnescape(c.Params("email"))
	if err != nil {
		return response.Fail(c, apperr.Invalidf("Invalid email"))
	}
	if err := h.Service.RegisterProspect(c.UserContext(), email); err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Prospect registered", nil, nil)
}
