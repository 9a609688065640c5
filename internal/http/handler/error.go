package handler

import (
	"github.com/gofiber/fiber/v2"

	"trainingportal/internal/http/middleware"
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

// Error codes returned in the envelope.
const (
	codeBadRequest       = "BAD_REQUEST"
	codeNotFound         = "NOT_FOUND"
	codeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	codeInternal         = "INTERNAL_ERROR"
	codeUnavailable      = "SERVICE_UNAVAILABLE"
	codeValidation       = "VALIDATION_ERROR"
	codeMaterialRequired = "MATERIAL_REQUIRED"
	codeMaterialNotFound = "MATERIAL_NOT_FOUND"
	codeLogNotFound      = "LOG_NOT_FOUND"
)

// Client-facing messages.
const (
	msgInternal         = "internal server error"
	msgInvalidBody      = "invalid request body"
	msgMaterialRequired = "Please select a training material."
	msgMaterialNotFound = "File not found on the server."
	msgLogNotFound      = "No access log available yet."
)

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if s, ok := c.Locals(middleware.RequestIDLocalKey).(string); ok {
		return s
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	})
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, codeBadRequest, "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, codeNotFound, "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, codeMethodNotAllowed, "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		default:
			return writeError(c, fiber.StatusInternalServerError, codeInternal, msgInternal)
		}
	}
}
