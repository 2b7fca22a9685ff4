package response

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/BillMorio/Video-Agent-sub002/internal/apperr"
	"github.com/BillMorio/Video-Agent-sub002/internal/client"
	"github.com/BillMorio/Video-Agent-sub002/internal/model"
)

// Error codes
const (
	CodeValidationError   = "VALIDATION_ERROR"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "ILLEGAL_TRANSITION"
	CodeRateLimited       = "RATE_LIMITED"
	CodeProviderError     = "PROVIDER_ERROR"
	CodeRenderError       = "RENDER_ERROR"
	CodePersistenceError  = "PERSISTENCE_ERROR"
	CodeServiceError      = "SERVICE_ERROR"
	CodeServiceNotEnabled = "SERVICE_UNAVAILABLE"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

func Error(c *fiber.Ctx, status int, code, message string, details interface{}) error {
	return c.Status(status).JSON(ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

func ValidationError(c *fiber.Ctx, message string, details interface{}) error {
	return Error(c, fiber.StatusBadRequest, CodeValidationError, message, details)
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, CodeUnauthorized, message, nil)
}

func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, CodeNotFound, message, nil)
}

func RateLimited(c *fiber.Ctx) error {
	return Error(c, fiber.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded", nil)
}

func ServiceError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, CodeServiceError, message, nil)
}

// FromError writes the envelope matching err's type. The message is always
// the underlying error text.
func FromError(c *fiber.Ctx, err error) error {
	var (
		verr *apperr.ValidationError
		nerr *apperr.NotFoundError
		terr *model.TransitionError
		berr *client.BackendError
		perr *client.ProviderError
		serr *apperr.PersistenceError
	)

	switch {
	case errors.As(err, &verr):
		var details interface{}
		if len(verr.Details) > 0 {
			details = verr.Details
		}
		return ValidationError(c, verr.Message, details)
	case errors.As(err, &nerr):
		return NotFound(c, err.Error())
	case errors.As(err, &terr):
		return Error(c, fiber.StatusConflict, CodeConflict, err.Error(), fiber.Map{
			"sceneId": terr.SceneID,
			"from":    terr.From,
			"to":      terr.To,
		})
	case errors.As(err, &berr):
		return Error(c, fiber.StatusInternalServerError, CodeRenderError, berr.Message, berr.Details)
	case errors.As(err, &perr):
		return Error(c, fiber.StatusInternalServerError, CodeProviderError, err.Error(), fiber.Map{
			"provider": perr.Provider,
			"status":   perr.StatusCode,
		})
	case errors.As(err, &serr):
		log.Error().Err(err).Str("path", c.Path()).Msg("persistence failure")
		return Error(c, fiber.StatusInternalServerError, CodePersistenceError, err.Error(), nil)
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return ServiceError(c, err.Error())
}

func OK(c *fiber.Ctx, data interface{}) error {
	return c.JSON(data)
}

func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(data)
}

func Accepted(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusAccepted).JSON(data)
}

func NoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}
