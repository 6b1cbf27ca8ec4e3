package user

import (
	"net/url"

	usersvc "hub-backend/internal/application/user"
	"hub-backend/internal/middleware"
	"hub-backend/internal/pkg/apperr"
	"hub-backend/internal/pkg/response"
	"hub-backend/internal/pkg/wire"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers exposes identity and connection operations.
type Handlers struct {
	Service *usersvc.Service
}

// CreateUserRequest is the JSON body of POST /users. The binary form is wire.RegistrationInfo.
type CreateUserRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

// Profile GET /users/:email. Any authenticated caller may read a basic profile.
func (h *Handlers) Profile(c *fiber.Ctx) error {
	email, err := url.PathUnescape(c.Params("email"))
	if err != nil {
		return response.Fail(c, apperr.Invalidf("Invalid email"))
	}
	u, err := h.Service.FindByEmail(c.UserContext(), email)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Message(c, "User found", wire.NewUserInfo(u))
}

// CreateUser POST /users. Admin registration.
func (h *Handlers) CreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if response.SendsBinary(c) {
		var info wire.RegistrationInfo
		if err := info.UnmarshalWire(c.Body()); err != nil {
			return response.Fail(c, apperr.Invalidf("Malformed registration"))
		}
		req = CreateUserRequest{Email: info.Email, FirstName: info.FirstName, LastName: info.LastName, Password: info.Password}
	} else if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, apperr.Invalidf("Missing required fields"))
	}

	u, err := h.Service.Create(c.UserContext(), usersvc.CreateUserInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		Role:      req.Role,
	})
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Message(c, "User created successfully", wire.NewUserInfo(u))
}

// RemoveUser DELETE /users/:id. Admin removal.
func (h *Handlers) RemoveUser(c *fiber.Ctx) error {
	id, err := middleware.TargetUserID(c)
	if err != nil {
		return response.Fail(c, err)
	}
	if err := h.Service.Remove(c.UserContext(), id); err != nil {
		return response.Fail(c, err)
	}
	return response.NoContent(c)
}

// ListConnections GET /users/:id/connections
func (h *Handlers) ListConnections(c *fiber.Ctx) error {
	id, err := middleware.TargetUserID(c)
	if err != nil {
		return response.Fail(c, err)
	}
	users, err := h.Service.ListConnections(c.UserContext(), id)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Message(c, "Connections found", wire.NewUserInfoList(users))
}

// Connect PUT /users/:id/connections/:otherId
func (h *Handlers) Connect(c *fiber.Ctx) error {
	id, err := middleware.TargetUserID(c)
	if err != nil {
		return response.Fail(c, err)
	}
	other, err := uuid.Parse(c.Params("otherId"))
	if err != nil {
		return response.Fail(c, apperr.NotFoundf("User not found"))
	}
	if err := h.Service.Connect(c.UserContext(), id, other); err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Connected", nil, nil)
}
