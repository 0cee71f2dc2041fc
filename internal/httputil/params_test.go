package httputil

import (
	"net/http/httptest"
	"testing"

	"stock-backend/internal/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamID(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(apperror.GetHTTPStatus(err)).SendString(err.Error())
		},
	})
	app.Get("/x/:id", func(c *fiber.Ctx) error {
		id, err := ParamID(c, "id")
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"id": id})
	})

	for path, want := range map[string]int{
		"/x/12":  fiber.StatusOK,
		"/x/0":   fiber.StatusBadRequest,
		"/x/-3":  fiber.StatusBadRequest,
		"/x/abc": fiber.StatusBadRequest,
	} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, path)
	}
}

func TestQueryDateAndID(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(apperror.GetHTTPStatus(err)).SendString(err.Error())
		},
	})
	app.Get("/q", func(c *fiber.Ctx) error {
		from, err := QueryDate(c, "from")
		if err != nil {
			return err
		}
		sid, err := QueryID(c, "societeId")
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"from": from, "societeId": sid})
	})

	for path, want := range map[string]int{
		"/q":                           fiber.StatusOK,
		"/q?from=2025-01-31":           fiber.StatusOK,
		"/q?from=2025-01-31T10:00:00Z": fiber.StatusOK,
		"/q?from=31/01/2025":           fiber.StatusBadRequest,
		"/q?societeId=4":               fiber.StatusOK,
		"/q?societeId=0":               fiber.StatusBadRequest,
	} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, path)
	}
}
