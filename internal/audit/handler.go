package audit

import (
	"stock-backend/internal/auth"
	"stock-backend/internal/logger"
	"stock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/audit-logs?entityType=lot&entityId=1&userId=2&societeId=3&limit=50
func ListAuditLogsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := Filter{
			EntityType: c.Query("entityType"),
			EntityID:   uint(c.QueryInt("entityId", 0)),
			UserID:     uint(c.QueryInt("userId", 0)),
			Limit:      c.QueryInt("limit", 100),
		}
		if sid := c.QueryInt("societeId", 0); sid > 0 {
			v := uint(sid)
			f.SocieteID = &v
		}

		logs, err := svc.List(c.UserContext(), f)
		if err != nil {
			return err
		}
		return c.JSON(logs)
	}
}

// Record writes an entry for the caller of c. Failures are logged and never
// fail the request that already succeeded.
func Record(c *fiber.Ctx, svc *Service, entityType string, entityID uint, action models.AuditAction, description string, before, after any) {
	if svc == nil {
		return
	}
	p := auth.CurrentPrincipal(c)
	err := svc.Write(c.UserContext(), LogOptions{
		SocieteID:   p.SocieteID,
		UserID:      p.UserID,
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      action,
		Description: description,
		Before:      before,
		After:       after,
	})
	if err != nil {
		logger.Warn(c.UserContext(), "audit write failed", "entity", entityType, "id", entityID, "error", err)
	}
}
