package middleware

import (
	"hub-backend/internal/pkg/apperr"
	"hub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

// ErrorHandler is the global error handler. Returns the standard error format.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return response.Error(c, fe.Message, fe.Code, nil)
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return response.Fail(c, err)
	}
	return response.Fail(c, apperr.Wrap(apperr.Internal, "Unhandled error", err))
}
