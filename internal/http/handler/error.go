package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"recordkit/internal/http/middleware"
	"recordkit/internal/record"
	"recordkit/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorMapping turns a sentinel error into a response. An empty message
// means the error text itself is safe to return.
type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var errorMappings = []errorMapping{
	{service.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "item not found"},
	{service.ErrIDRequired, fiber.StatusBadRequest, "VALIDATION_ERROR", ""},
	{service.ErrNameRequired, fiber.StatusBadRequest, "VALIDATION_ERROR", ""},
	{service.ErrInvalidPrice, fiber.StatusBadRequest, "VALIDATION_ERROR", ""},
	{record.ErrAmbiguousSave, fiber.StatusConflict, "AMBIGUOUS_SAVE", "several rows are loaded; use a bulk update"},
	{record.ErrNotLoaded, fiber.StatusConflict, "NOT_LOADED", "no rows are loaded"},
	{record.ErrNoColumns, fiber.StatusInternalServerError, "SCHEMA_MISMATCH", "entity has no columns in the table"},
	{record.ErrUnknownColumn, fiber.StatusInternalServerError, "SCHEMA_MISMATCH", "entity does not map the requested column"},
	{record.ErrNoRowID, fiber.StatusInternalServerError, "SCHEMA_MISMATCH", "table row has no id column"},
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: middleware.RequestIDFrom(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// respondError writes the envelope for err. Errors with no mapping are internal.
func respondError(c *fiber.Ctx, err error) error {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		msg := m.message
		if msg == "" {
			msg = m.target.Error()
		}
		return writeError(c, m.status, m.code, msg)
	}
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if !errors.As(err, &fe) {
			return respondError(c, err)
		}

		switch fe.Code {
		case fiber.StatusBadRequest:
			return writeError(c, fe.Code, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, fe.Code, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, fe.Code, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, fe.Code, "INTERNAL_ERROR", "internal server error")
		}
	}
}
