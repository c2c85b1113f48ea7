package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/homepanel/api/internal/apperr"
	"github.com/homepanel/api/internal/service"
	"github.com/homepanel/api/pkg/response"
)

// writeError renders a service error in the response envelope
func writeError(c *fiber.Ctx, err error) error {
	msg := apperr.Message(err)

	switch {
	case errors.Is(err, apperr.ErrInvalidArgument):
		return response.ValidationError(c, msg, nil)
	case errors.Is(err, apperr.ErrNotFound):
		return response.NotFound(c, msg)
	case errors.Is(err, apperr.ErrForbidden):
		return response.Forbidden(c, msg)
	case errors.Is(err, apperr.ErrConflict):
		return response.Conflict(c, msg)
	case errors.Is(err, service.ErrBackupNotConfigured), errors.Is(err, service.ErrRebootNotConfigured):
		return response.ServiceUnavailable(c, err.Error())
	default:
		// StoreUnavailable, IOError and anything unclassified
		return response.ServiceError(c, msg)
	}
}

func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}
