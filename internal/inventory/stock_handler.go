package inventory

import (
	"stock-backend/internal/apperror"
	"stock-backend/internal/audit"
	"stock-backend/internal/auth"
	"stock-backend/internal/httputil"
	"stock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const entityStock = "stock"

func ListStocksHandler(svc *StockService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stocks, err := svc.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(stocks)
	}
}

func GetStockHandler(svc *StockService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParamID(c, "id")
		if err != nil {
			return err
		}
		stock, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(stock)
	}
}

func ListStocksBySocieteHandler(svc *StockService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		societeID, err := httputil.ParamID(c, "societeId")
		if err != nil {
			return err
		}
		stocks, err := svc.ListBySociete(c.UserContext(), societeID)
		if err != nil {
			return err
		}
		return c.JSON(stocks)
	}
}

// GET /api/stocks/consultation/societe/:societeId, open to sellers.
func StockConsultationHandler(svc *StockService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		societeID, err := httputil.ParamID(c, "societeId")
		if err != nil {
			return err
		}
		if p := auth.CurrentPrincipal(c); !p.IsAdmin() && p.SocieteID != nil && *p.SocieteID != societeID {
			return apperror.NewForbidden("Vous ne pouvez consulter que le stock de votre société.")
		}
		rows, err := svc.Consultation(c.UserContext(), societeID)
		if err != nil {
			return err
		}
		return c.JSON(rows)
	}
}

func CreateStockHandler(svc *StockService, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body StockInput
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}

		stock, err := svc.Create(c.UserContext(), body)
		if err != nil {
			return err
		}

		audit.Record(c, auditSvc, entityStock, stock.ID, models.AuditActionCreate,
			"Stock créé: "+stock.Barcode, nil, stock)
		return c.Status(fiber.StatusCreated).JSON(stock)
	}
}

func UpdateStockHandler(svc *StockService, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body StockInput
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}

		before, after, err := svc.Update(c.UserContext(), id, body)
		if err != nil {
			return err
		}

		audit.Record(c, auditSvc, entityStock, id, models.AuditActionUpdate,
			"Stock modifié: "+after.Barcode, before, after)
		return c.JSON(after)
	}
}

func DeleteStockHandler(svc *StockService, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParamID(c, "id")
		if err != nil {
			return err
		}

		deleted, err := svc.Delete(c.UserContext(), id)
		if err != nil {
			return err
		}

		audit.Record(c, auditSvc, entityStock, id, models.AuditActionDelete,
			"Stock supprimé: "+deleted.Barcode, deleted, nil)
		return c.SendStatus(fiber.StatusNoContent)
	}
}
