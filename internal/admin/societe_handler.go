package admin

import (
	"stock-backend/internal/audit"
	"stock-backend/internal/httputil"
	"stock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const entitySociete = "societe"

func ListSocietesHandler(svc *SocieteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		societes, err := svc.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(societes)
	}
}

func GetSocieteHandler(svc *SocieteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParamID(c, "id")
		if err != nil {
			return err
		}
		detail, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(detail)
	}
}

func CreateSocieteHandler(svc *SocieteService, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SocieteInput
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}

		societe, err := svc.Create(c.UserContext(), body)
		if err != nil {
			return err
		}

		audit.Record(c, auditSvc, entitySociete, societe.ID, models.AuditActionCreate,
			"Société créée: "+societe.Name, nil, societe)
		return c.Status(fiber.StatusCreated).JSON(societe)
	}
}

func UpdateSocieteHandler(svc *SocieteService, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body SocieteInput
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}

		before, after, err := svc.Update(c.UserContext(), id, body)
		if err != nil {
			return err
		}

		audit.Record(c, auditSvc, entitySociete, id, models.AuditActionUpdate,
			"Société modifiée: "+after.Name, before, after)
		return c.JSON(after)
	}
}

func DeleteSocieteHandler(svc *SocieteService, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParamID(c, "id")
		if err != nil {
			return err
		}

		deleted, err := svc.Delete(c.UserContext(), id)
		if err != nil {
			return err
		}

		audit.Record(c, auditSvc, entitySociete, id, models.AuditActionDelete,
			"Société supprimée: "+deleted.Name, deleted, nil)
		return c.SendStatus(fiber.StatusNoContent)
	}
}
