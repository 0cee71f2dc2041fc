package auth

import (
	"strings"

	"stock-backend/internal/config"
	"stock-backend/internal/logger"
	"stock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxUserIDKey    = "user_id"
	CtxUserRoleKey  = "user_role"
	CtxSocieteIDKey = "societe_id"
)

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "En-tête Authorization manquant")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Le format attendu est 'Bearer <token>'")
		}

		claims, err := ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Token invalide ou expiré")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserRoleKey, claims.Role)
		c.Locals(CtxSocieteIDKey, claims.SocieteID)
		c.SetUserContext(logger.WithUserID(c.UserContext(), claims.UserID))

		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Rôle introuvable")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "Accès refusé pour ce rôle")
	}
}

// Principal is the authenticated caller as seen by services.
type Principal struct {
	UserID    uint
	Role      models.UserRole
	SocieteID *uint
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// CurrentPrincipal reads the values stored by JWTMiddleware.
func CurrentPrincipal(c *fiber.Ctx) Principal {
	p := Principal{}
	if id, ok := c.Locals(CtxUserIDKey).(uint); ok {
		p.UserID = id
	}
	if role, ok := c.Locals(CtxUserRoleKey).(models.UserRole); ok {
		p.Role = role
	}
	if sid, ok := c.Locals(CtxSocieteIDKey).(*uint); ok {
		p.SocieteID = sid
	}
	return p
}
