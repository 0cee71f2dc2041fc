package inventory

import (
	"encoding/json"

	"stock-backend/internal/apperror"
	"stock-backend/internal/audit"
	"stock-backend/internal/httputil"
	"stock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const entityLot = "lot"

func ListLotsHandler(svc *LotService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lots, err := svc.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(lots)
	}
}

func GetLotHandler(svc *LotService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParamID(c, "id")
		if err != nil {
			return err
		}
		lot, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(lot)
	}
}

func ListLotsByArticleHandler(svc *LotService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		articleID, err := httputil.ParamID(c, "articleId")
		if err != nil {
			return err
		}
		lots, err := svc.ListByArticle(c.UserContext(), articleID)
		if err != nil {
			return err
		}
		return c.JSON(lots)
	}
}

func ListLotsForSelectHandler(svc *LotService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		articleID, err := httputil.ParamID(c, "articleId")
		if err != nil {
			return err
		}
		lots, err := svc.ListForSelect(c.UserContext(), articleID)
		if err != nil {
			return err
		}
		return c.JSON(lots)
	}
}

func CreateLotHandler(svc *LotService, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LotInput
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}

		lot, err := svc.Create(c.UserContext(), body)
		if err != nil {
			return err
		}

		audit.Record(c, auditSvc, entityLot, lot.ID, models.AuditActionCreate,
			"Lot créé: "+lot.Number, nil, lot)
		return c.Status(fiber.StatusCreated).JSON(lot)
	}
}

func UpdateLotHandler(svc *LotService, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body LotInput
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}

		before, after, err := svc.Update(c.UserContext(), id, body)
		if err != nil {
			return err
		}

		audit.Record(c, auditSvc, entityLot, id, models.AuditActionUpdate,
			"Lot modifié: "+after.Number, before, after)
		return c.JSON(after)
	}
}

func DeleteLotHandler(svc *LotService, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParamID(c, "id")
		if err != nil {
			return err
		}

		deleted, err := svc.Delete(c.UserContext(), id)
		if err != nil {
			return err
		}

		audit.Record(c, auditSvc, entityLot, id, models.AuditActionDelete,
			"Lot supprimé: "+deleted.Number, deleted, nil)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// PATCH /api/lots/:id/quantite accepts a bare number or {"quantite": n}.
func UpdateLotQuantityHandler(svc *LotService, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParamID(c, "id")
		if err != nil {
			return err
		}
		qty, err := parseQuantityBody(c.Body())
		if err != nil {
			return err
		}

		before, after, err := svc.UpdateQuantity(c.UserContext(), id, qty)
		if err != nil {
			return err
		}

		audit.Record(c, auditSvc, entityLot, id, models.AuditActionUpdate,
			"Quantité du lot modifiée: "+after.Number, before, after)
		return c.JSON(fiber.Map{"message": "Quantité mise à jour avec succès"})
	}
}

func parseQuantityBody(body []byte) (int, error) {
	var qty int
	if err := json.Unmarshal(body, &qty); err == nil {
		return qty, nil
	}
	var wrapped struct {
		Quantite *int `json:"quantite"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil || wrapped.Quantite == nil {
		return 0, apperror.NewValidation("Quantité attendue")
	}
	return *wrapped.Quantite, nil
}
