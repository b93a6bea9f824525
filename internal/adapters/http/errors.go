package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/adityarao/campus-transit/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, conflict, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errConflict returns a 409 error.
func errConflict(c *fiber.Ctx, msg string) error {
	return newError(c, 409, "conflict", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// domainError maps store command errors onto HTTP statuses.
func domainError(c *fiber.Ctx, err error) error {
	var conflict *domain.ConflictError
	var invalid *domain.ValidationError
	switch {
	case errors.As(err, &conflict):
		return errConflict(c, conflict.Reason)
	case errors.As(err, &invalid):
		return errBadRequest(c, invalid.Reason)
	case errors.Is(err, domain.ErrNotFound):
		return errNotFound(c, "not found")
	default:
		return errInternal(c, err.Error())
	}
}
