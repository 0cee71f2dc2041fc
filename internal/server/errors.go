package server

import (
	"errors"

	"stock-backend/internal/apperror"
	"stock-backend/internal/logger"

	"github.com/gofiber/fiber/v2"
)

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

var statusCodes = map[int]string{
	fiber.StatusBadRequest:          apperror.CodeValidation,
	fiber.StatusUnauthorized:        apperror.CodeUnauthorized,
	fiber.StatusForbidden:           apperror.CodeForbidden,
	fiber.StatusNotFound:            apperror.CodeNotFound,
	fiber.StatusConflict:            apperror.CodeConflict,
	fiber.StatusUnprocessableEntity: apperror.CodeBusinessRule,
}

// ErrorHandler renders every error as {"code","message","details"}.
// Unexpected errors are logged and hidden behind a 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if appErr, ok := apperror.AsAppError(err); ok {
		if appErr.HTTPStatus >= fiber.StatusInternalServerError {
			logger.Error(c.UserContext(), "request failed",
				"method", c.Method(), "path", c.Path(), "error", err)
		}
		return c.Status(appErr.HTTPStatus).JSON(errorBody{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		})
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code, ok := statusCodes[fe.Code]
		if !ok {
			code = apperror.CodeInternal
		}
		return c.Status(fe.Code).JSON(errorBody{Code: code, Message: fe.Message})
	}

	logger.Error(c.UserContext(), "unexpected error",
		"method", c.Method(), "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(errorBody{
		Code:    apperror.CodeInternal,
		Message: "Erreur interne du serveur",
	})
}

// statusOf is the status the error handler will send for err.
func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return apperror.GetHTTPStatus(err)
}
