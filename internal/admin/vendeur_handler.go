package admin

import (
	"stock-backend/internal/audit"
	"stock-backend/internal/httputil"
	"stock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const entityVendeur = "vendeur"

func ListVendeursHandler(svc *VendeurService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users, err := svc.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(users)
	}
}

// GET /api/backoffice/vendeurs/search?term=
func SearchVendeursHandler(svc *VendeurService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users, err := svc.Search(c.UserContext(), c.Query("term"))
		if err != nil {
			return err
		}
		return c.JSON(users)
	}
}

func GetVendeurHandler(svc *VendeurService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParamID(c, "id")
		if err != nil {
			return err
		}
		user, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(user)
	}
}

func CreateVendeurHandler(svc *VendeurService, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateVendeurInput
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}

		user, err := svc.Create(c.UserContext(), body)
		if err != nil {
			return err
		}

		audit.Record(c, auditSvc, entityVendeur, user.ID, models.AuditActionCreate,
			"Vendeur créé: "+user.Email, nil, user)
		return c.Status(fiber.StatusCreated).JSON(user)
	}
}

func UpdateVendeurHandler(svc *VendeurService, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateVendeurInput
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}

		before, after, err := svc.Update(c.UserContext(), id, body)
		if err != nil {
			return err
		}

		audit.Record(c, auditSvc, entityVendeur, id, models.AuditActionUpdate,
			"Vendeur modifié: "+after.Email, before, after)
		return c.JSON(after)
	}
}

func DeleteVendeurHandler(svc *VendeurService, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParamID(c, "id")
		if err != nil {
			return err
		}

		deleted, err := svc.Delete(c.UserContext(), id)
		if err != nil {
			return err
		}

		audit.Record(c, auditSvc, entityVendeur, id, models.AuditActionDelete,
			"Vendeur supprimé: "+deleted.Email, deleted, nil)
		return c.SendStatus(fiber.StatusNoContent)
	}
}
