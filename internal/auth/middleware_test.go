package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"stock-backend/internal/config"
	"stock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedApp(cfg *config.Config) *fiber.App {
	app := fiber.New()
	app.Get("/admin", JWTMiddleware(cfg), RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		p := CurrentPrincipal(c)
		return c.JSON(fiber.Map{"id": p.UserID, "admin": p.IsAdmin()})
	})
	return app
}

func TestJWTMiddleware(t *testing.T) {
	cfg := &config.Config{JWTSecret: testSecret}
	app := newProtectedApp(cfg)

	societeID := uint(4)
	admin := &models.User{ID: 1, Email: "a@b.fr", Role: models.RoleAdmin}
	vendeur := &models.User{ID: 2, Email: "v@b.fr", Role: models.RoleVendeur, SocieteID: &societeID}

	adminToken, _, err := GenerateToken(testSecret, time.Hour, admin)
	require.NoError(t, err)
	vendeurToken, _, err := GenerateToken(testSecret, time.Hour, vendeur)
	require.NoError(t, err)
	expired, _, err := GenerateToken(testSecret, -time.Minute, admin)
	require.NoError(t, err)
	foreign, _, err := GenerateToken("another-secret-another-secret-xx", time.Hour, admin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"bad scheme", "Token " + adminToken, fiber.StatusUnauthorized},
		{"expired", "Bearer " + expired, fiber.StatusUnauthorized},
		{"wrong secret", "Bearer " + foreign, fiber.StatusUnauthorized},
		{"wrong role", "Bearer " + vendeurToken, fiber.StatusForbidden},
		{"ok", "Bearer " + adminToken, fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
