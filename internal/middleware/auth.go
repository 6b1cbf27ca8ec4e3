package middleware

import (
	"encoding/base64"
	"strings"

	"hub-backend/internal/application/auth"
	"hub-backend/internal/domain"
	"hub-backend/internal/pkg/apperr"
	"hub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const (
	callerLocal  = "caller"
	sessionLocal = "session_jti"
)

// Authenticate resolves the caller from Basic credentials or a bearer token.
// A request without credentials passes through anonymously; a request with
// bad credentials is left anonymous too, so the gate answers 403 either way.
func Authenticate(svc *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return c.Next()
		}
		scheme, value, _ := strings.Cut(header, " ")
		value = strings.TrimSpace(value)
		ctx := c.UserContext()

		switch strings.ToLower(scheme) {
		case "basic":
			raw, err := base64.StdEncoding.DecodeString(value)
			if err != nil {
				return c.Next()
			}
			email, password, ok := strings.Cut(string(raw), ":")
			if !ok {
				return c.Next()
			}
			u, err := svc.CheckPassword(ctx, email, password)
			if err != nil {
				return passOrFail(c, err)
			}
			c.Locals(callerLocal, u)
		case "bearer":
			sess, err := svc.VerifyToken(ctx, value)
			if err != nil {
				return passOrFail(c, err)
			}
			c.Locals(callerLocal, sess.User)
			c.Locals(sessionLocal, sess.JTI)
		}
		return c.Next()
	}
}

// passOrFail continues anonymously on credential failures and surfaces store errors.
func passOrFail(c *fiber.Ctx, err error) error {
	if apperr.Is(err, apperr.Forbidden) {
		log.Debug().Str("trace_id", GetTraceID(c)).Msg("Rejected credentials")
		return c.Next()
	}
	return response.Fail(c, err)
}

// RequireAuth ensures a caller was resolved. Returns 403 with standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetCaller(c) == nil {
			return response.Forbidden(c, "Not authenticated")
		}
		return c.Next()
	}
}

// GetCaller returns the authenticated user (nil if anonymous).
func GetCaller(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals(callerLocal).(*domain.User)
	return u
}

// GetSessionJTI returns the bearer session id, or "" for Basic callers.
func GetSessionJTI(c *fiber.Ctx) string {
	jti, _ := c.Locals(sessionLocal).(string)
	return jti
}
