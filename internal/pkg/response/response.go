package response

import (
	"errors"
	"strings"

	"hub-backend/internal/pkg/apperr"
	"hub-backend/internal/pkg/wire"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// SuccessBody is the standardized success JSON shape.
type SuccessBody struct {
	Status   string      `json:"status"`
	Message  string      `json:"message"`
	Data     interface{} `json:"data"`
	Metadata interface{} `json:"metadata,omitempty"`
}

// ErrorBody is the standardized error JSON shape.
type ErrorBody struct {
	Status string      `json:"status"`
	Error  ErrorDetail `json:"error"`
}

// ErrorDetail is the nested error object. Kind is the machine-readable failure kind.
type ErrorDetail struct {
	Message    string      `json:"message"`
	StatusCode int         `json:"statusCode"`
	Kind       string      `json:"kind,omitempty"`
	Details    interface{} `json:"details,omitempty"`
}

const statusSuccess = "success"
const statusError = "error"

// WantsBinary reports whether the client asked for the binary tagged-field form.
func WantsBinary(c *fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderAccept), wire.ContentType)
}

// SendsBinary reports whether the request body is in the binary form.
func SendsBinary(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), wire.ContentType)
}

// Success sends a 200 OK response with the standard success format.
func Success(c *fiber.Ctx, message string, data interface{}, metadata interface{}) error {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return c.Status(fiber.StatusOK).JSON(SuccessBody{
		Status:   statusSuccess,
		Message:  message,
		Data:     data,
		Metadata: metadata,
	})
}

// Message sends a 200 OK with msg encoded as the client asked: the raw
// binary message, or msg as data inside the JSON envelope.
func Message(c *fiber.Ctx, message string, msg wire.Message) error {
	if WantsBinary(c) {
		c.Set(fiber.HeaderContentType, wire.ContentType)
		return c.Status(fiber.StatusOK).Send(wire.Marshal(msg))
	}
	return Success(c, message, msg, nil)
}

// NoContent sends 204 with no body.
func NoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

// Error sends a response with the standard error format.
func Error(c *fiber.Ctx, message string, statusCode int, details interface{}) error {
	if details == nil {
		details = map[string]interface{}{}
	}
	return c.Status(statusCode).JSON(ErrorBody{
		Status: statusError,
		Error: ErrorDetail{
			Message:    message,
			StatusCode: statusCode,
			Details:    details,
		},
	})
}

// Fail translates a service error into the error envelope. 4xx responses carry
// the kind and message; 5xx responses carry no detail.
func Fail(c *fiber.Ctx, err error) error {
	kind := apperr.KindOf(err)
	status := apperr.Status(kind)
	detail := ErrorDetail{StatusCode: status, Kind: string(kind), Details: map[string]interface{}{}}
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("kind", string(kind)).Str("path", c.Path()).Msg("Request failed")
		detail.Message = "Internal Server Error"
		if kind == apperr.ProviderFailure {
			detail.Message = "Billing provider failure"
		}
	} else {
		var e *apperr.Error
		if errors.As(err, &e) {
			detail.Message = e.Message
		}
	}
	return c.Status(status).JSON(ErrorBody{Status: statusError, Error: detail})
}

// Forbidden sends 403; the gate does not distinguish anonymous from wrong user.
func Forbidden(c *fiber.Ctx, message string) error {
	return Fail(c, apperr.New(apperr.Forbidden, message))
}
