package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"lacestore/internal/domain"
	applog "lacestore/internal/log"
	"lacestore/internal/services"
)

// ErrorHandler maps domain errors onto statuses and never leaks internals.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status, msg := classify(err)
	// payment mismatches are already logged by the payment service
	if status >= fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, map[string]any{"status": status})
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func classify(err error) (int, string) {
	var (
		ferr *fiber.Error
		verr *domain.ValidationError
		nerr *domain.NotFoundError
		perr *domain.PaymentValidationError
	)
	switch {
	case errors.As(err, &ferr):
		return ferr.Code, ferr.Message
	case errors.As(err, &verr):
		return fiber.StatusBadRequest, verr.Error()
	case errors.As(err, &nerr):
		return fiber.StatusNotFound, nerr.Error()
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusConflict, "not enough stock for that item"
	case errors.Is(err, domain.ErrInvalidTransition):
		return fiber.StatusConflict, "order cannot move to that status"
	case errors.As(err, &perr):
		return fiber.StatusUnprocessableEntity, "payment does not match the order"
	case errors.Is(err, services.ErrBadCreds):
		return fiber.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, domain.ErrUnavailable):
		return fiber.StatusServiceUnavailable, "temporarily unavailable, try again"
	}
	return fiber.StatusInternalServerError, "something went wrong, please try again"
}
