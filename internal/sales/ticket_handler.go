package sales

import (
	"stock-backend/internal/apperror"
	"stock-backend/internal/auth"
	"stock-backend/internal/httputil"
	"stock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// canSee hides other sociétés' tickets from sellers bound to a société.
func canSee(p auth.Principal, t *models.Ticket) error {
	if p.IsAdmin() || p.SocieteID == nil || t.Vente == nil {
		return nil
	}
	if t.Vente.SocieteID != *p.SocieteID {
		return apperror.NewForbidden("Ce ticket appartient à une autre société.")
	}
	return nil
}

func ListTicketsHandler(svc *TicketService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tickets, err := svc.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(tickets)
	}
}

func GetTicketHandler(svc *TicketService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParamID(c, "id")
		if err != nil {
			return err
		}
		t, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		if err := canSee(auth.CurrentPrincipal(c), t); err != nil {
			return err
		}
		return c.JSON(t)
	}
}

func GetTicketByBarcodeHandler(svc *TicketService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := svc.GetByBarcode(c.UserContext(), c.Params("code"))
		if err != nil {
			return err
		}
		if err := canSee(auth.CurrentPrincipal(c), t); err != nil {
			return err
		}
		return c.JSON(t)
	}
}

type generateTicketRequest struct {
	VenteID uint   `json:"venteId"`
	Barcode string `json:"codeBarre"`
}

// POST /api/tickets/generate. Without venteId only a fresh barcode is
// returned.
func GenerateTicketHandler(svc *TicketService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body generateTicketRequest
		if len(c.Body()) > 0 {
			if err := httputil.ParseBody(c, &body); err != nil {
				return err
			}
		}
		if body.VenteID == 0 {
			return c.JSON(fiber.Map{"codeBarre": svc.GenerateBarcode()})
		}

		var scope *uint
		if p := auth.CurrentPrincipal(c); !p.IsAdmin() {
			scope = p.SocieteID
		}
		t, err := svc.Create(c.UserContext(), body.Barcode, body.VenteID, scope)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(t)
	}
}

func MarkTicketPrintedHandler(svc *TicketService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParamID(c, "id")
		if err != nil {
			return err
		}
		t, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		if err := canSee(auth.CurrentPrincipal(c), t); err != nil {
			return err
		}
		t, err = svc.MarkPrinted(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(t)
	}
}

// GET /api/tickets/:id/recu returns the receipt as plain text.
func TicketReceiptHandler(svc *TicketService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParamID(c, "id")
		if err != nil {
			return err
		}
		t, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		if err := canSee(auth.CurrentPrincipal(c), t); err != nil {
			return err
		}
		text, err := svc.Receipt(c.UserContext(), id)
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.SendString(text)
	}
}
