package sales

import (
	"fmt"
	"time"

	"stock-backend/internal/apperror"
	"stock-backend/internal/audit"
	"stock-backend/internal/auth"
	"stock-backend/internal/httputil"
	"stock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const entityVente = "vente"

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func ListVentesHandler(svc *VenteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ventes, err := svc.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(ventes)
	}
}

func GetVenteHandler(svc *VenteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParamID(c, "id")
		if err != nil {
			return err
		}
		v, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(v)
	}
}

func ListVentesBySocieteHandler(svc *VenteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		societeID, err := httputil.ParamID(c, "societeId")
		if err != nil {
			return err
		}
		ventes, err := svc.ListBySociete(c.UserContext(), societeID)
		if err != nil {
			return err
		}
		return c.JSON(ventes)
	}
}

// POST /api/ventes/avec-calcul
func CreateVenteAvecCalculHandler(svc *VenteService, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SaleRequest
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}

		resp, err := svc.CreateWithPricing(c.UserContext(), auth.CurrentPrincipal(c), body)
		if err != nil {
			return err
		}

		recordSale(c, auditSvc, resp)
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

func UpdateVenteAvecCalculHandler(svc *VenteService, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body SaleRequest
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}

		before, after, err := svc.UpdateWithPricing(c.UserContext(), id, body)
		if err != nil {
			return err
		}

		audit.Record(c, auditSvc, entityVente, id, models.AuditActionUpdate,
			fmt.Sprintf("Vente modifiée: %s lot %s x%d", after.Article, after.Lot, after.Qty), before, after)
		return c.JSON(after)
	}
}

type quickSaleSummary struct {
	Article       string `json:"article"`
	Qty           int    `json:"quantite"`
	UnitPrice     string `json:"prixUnitaire"`
	TotalPrice    string `json:"prixTotal"`
	TicketsIssued int    `json:"ticketsGeneres"`
	SocieteName   string `json:"societe"`
	SaleReference uint   `json:"reference"`
}

// POST /api/ventes/vente-rapide, also mounted as /api/ventes/article.
func VenteRapideHandler(svc *VenteService, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SaleRequest
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}

		resp, err := svc.CreateWithPricing(c.UserContext(), auth.CurrentPrincipal(c), body)
		if err != nil {
			return err
		}

		recordSale(c, auditSvc, resp)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"vente":   resp,
			"message": fmt.Sprintf("Vente de %d x %s enregistrée.", resp.Qty, resp.Article),
			"resume": quickSaleSummary{
				Article:       resp.Article,
				Qty:           resp.Qty,
				UnitPrice:     resp.UnitPrice.StringFixed(2),
				TotalPrice:    resp.TotalPrice.StringFixed(2),
				TicketsIssued: len(resp.Tickets),
				SocieteName:   resp.SocieteName,
				SaleReference: resp.ID,
			},
		})
	}
}

// POST /api/ventes/valider answers {valid:false} with the error status when
// the sale could not go through.
func ValiderVenteHandler(svc *VenteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SaleRequest
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}

		sim, err := svc.Simulate(c.UserContext(), auth.CurrentPrincipal(c), body)
		if err != nil {
			appErr, ok := apperror.AsAppError(err)
			if !ok || appErr.HTTPStatus >= fiber.StatusInternalServerError {
				return err
			}
			return c.Status(appErr.HTTPStatus).JSON(fiber.Map{
				"valid":   false,
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": appErr.Details,
			})
		}
		return c.JSON(fiber.Map{
			"valid":      true,
			"simulation": sim,
			"message":    "La vente peut être effectuée.",
		})
	}
}

func CreateVenteHandler(svc *VenteService, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RawVenteInput
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}

		v, err := svc.CreateRaw(c.UserContext(), auth.CurrentPrincipal(c), body)
		if err != nil {
			return err
		}

		audit.Record(c, auditSvc, entityVente, v.ID, models.AuditActionCreate,
			fmt.Sprintf("Vente saisie: %s lot %s x%d", v.Article, v.Lot, v.Qty), nil, v)
		return c.Status(fiber.StatusCreated).JSON(v)
	}
}

func UpdateVenteHandler(svc *VenteService, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body RawVenteInput
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}

		before, after, err := svc.UpdateRaw(c.UserContext(), id, body)
		if err != nil {
			return err
		}

		audit.Record(c, auditSvc, entityVente, id, models.AuditActionUpdate,
			fmt.Sprintf("Vente modifiée: %s lot %s x%d", after.Article, after.Lot, after.Qty), before, after)
		return c.JSON(after)
	}
}

func DeleteVenteHandler(svc *VenteService, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParamID(c, "id")
		if err != nil {
			return err
		}

		deleted, err := svc.Delete(c.UserContext(), id)
		if err != nil {
			return err
		}

		audit.Record(c, auditSvc, entityVente, id, models.AuditActionDelete,
			fmt.Sprintf("Vente supprimée: %s lot %s", deleted.Article, deleted.Lot), deleted, nil)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/ventes/export?from=2025-01-01&to=2025-01-31&societeId=2
func ExportVentesHandler(svc *VenteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var f ExportFilter
		var err error
		if f.From, err = httputil.QueryDate(c, "from"); err != nil {
			return err
		}
		if f.To, err = httputil.QueryDate(c, "to"); err != nil {
			return err
		}
		if f.SocieteID, err = httputil.QueryID(c, "societeId"); err != nil {
			return err
		}
		if f.To != nil && f.To.Equal(f.To.Truncate(24*time.Hour)) {
			end := f.To.Add(24*time.Hour - time.Nanosecond)
			f.To = &end
		}

		data, err := svc.ExportVentes(c.UserContext(), f)
		if err != nil {
			return err
		}

		c.Set(fiber.HeaderContentType, xlsxContentType)
		c.Set(fiber.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="ventes-%s.xlsx"`, time.Now().Format("20060102")))
		return c.Send(data)
	}
}

func recordSale(c *fiber.Ctx, auditSvc *audit.Service, resp *SaleResponse) {
	audit.Record(c, auditSvc, entityVente, resp.ID, models.AuditActionCreate,
		fmt.Sprintf("Vente: %s lot %s x%d (%s)", resp.Article, resp.Lot, resp.Qty, resp.TotalPrice.StringFixed(2)),
		nil, resp)
}
