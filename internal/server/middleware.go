package server

import (
	"time"

	"stock-backend/internal/logger"

	"github.com/gofiber/fiber/v2"
)

// requestContext copies the request id into the user context so services
// log it.
func requestContext(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := logger.WithLogger(c.UserContext(), log)
		if id := c.GetRespHeader(fiber.HeaderXRequestID); id != "" {
			ctx = logger.WithRequestID(ctx, id)
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := statusOf(c, err)
		kv := []any{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"ip", c.IP(),
		}
		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error(c.UserContext(), "http request", kv...)
		case status >= fiber.StatusBadRequest:
			logger.Warn(c.UserContext(), "http request", kv...)
		default:
			logger.Info(c.UserContext(), "http request", kv...)
		}
		return err
	}
}
