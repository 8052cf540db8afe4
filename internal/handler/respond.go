package handler

import (
	"errors"

	"go-inventory-procurement/internal/middleware"
	"go-inventory-procurement/internal/service"
	"go-inventory-procurement/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrAlreadyProcessed),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrInsufficientStock):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden
	}
	return fiber.StatusInternalServerError
}

func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = "Internal server error"
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func principal(c *fiber.Ctx) (service.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return service.Principal{}, service.ErrUnauthorized
	}
	return p, nil
}

func paramID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, &service.FieldError{Field: "id", Reason: "must be a UUID"}
	}
	return id, nil
}

// parseBody decodes the JSON request body into dst.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return &service.FieldError{Field: "body", Reason: "is not valid JSON"}
	}
	return nil
}

// bind decodes the body and checks its validate tags.
func bind(c *fiber.Ctx, dst interface{}) error {
	if err := parseBody(c, dst); err != nil {
		return err
	}
	if violations := validator.Struct(dst); len(violations) > 0 {
		return &service.FieldError{Field: violations[0].Field, Reason: "failed on '" + violations[0].Tag + "'"}
	}
	return nil
}
