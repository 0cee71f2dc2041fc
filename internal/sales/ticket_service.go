package sales

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"text/template"
	"time"

	"stock-backend/internal/apperror"
	"stock-backend/internal/metrics"
	"stock-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var receiptTmpl = template.Must(template.New("recu").Parse(`{{.Societe}}
{{- if .Address}}
{{.Address}}{{end}}
----------------------------------------
Ticket   : {{.Barcode}}
Date     : {{.Date}}
Article  : {{.Article}}
Lot      : {{.Lot}}
Quantité : {{.Qty}}
Prix unit: {{.UnitPrice}}
Total    : {{.Total}}
----------------------------------------
Merci de votre visite
`))

type receiptData struct {
	Societe   string
	Address   string
	Barcode   string
	Date      string
	Article   string
	Lot       string
	Qty       int
	UnitPrice string
	Total     string
}

type TicketService struct {
	db   *gorm.DB
	now  func() time.Time
	rand func(n int) int
}

func NewTicketService(db *gorm.DB) *TicketService {
	return &TicketService{db: db, now: time.Now, rand: rand.IntN}
}

func (s *TicketService) preload(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Vente").Preload("Vente.Societe")
}

func (s *TicketService) List(ctx context.Context) ([]models.Ticket, error) {
	var tickets []models.Ticket
	if err := s.preload(ctx).Order("created_at DESC, id DESC").Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("liste des tickets: %w", err)
	}
	return tickets, nil
}

func (s *TicketService) Get(ctx context.Context, id uint) (*models.Ticket, error) {
	var t models.Ticket
	if err := s.preload(ctx).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound("Ticket", id)
		}
		return nil, fmt.Errorf("lecture ticket: %w", err)
	}
	return &t, nil
}

func (s *TicketService) GetByBarcode(ctx context.Context, barcode string) (*models.Ticket, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, apperror.NewValidation("Le code-barres est requis.")
	}
	var t models.Ticket
	if err := s.preload(ctx).Where("barcode = ?", barcode).Order("id").First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound("Ticket", barcode)
		}
		return nil, fmt.Errorf("lecture ticket: %w", err)
	}
	return &t, nil
}

// GenerateBarcode returns the current unix time followed by four random
// digits.
func (s *TicketService) GenerateBarcode() string {
	return strconv.FormatInt(s.now().Unix(), 10) + strconv.Itoa(1000+s.rand(9000))
}

// Create attaches a ticket to an existing sale. An empty barcode gets a
// generated one. A non-nil scope restricts the sale to that société.
func (s *TicketService) Create(ctx context.Context, barcode string, venteID uint, scope *uint) (*models.Ticket, error) {
	if venteID == 0 {
		return nil, apperror.NewValidation("L'ID de la vente est requis.")
	}
	db := s.db.WithContext(ctx)

	var v models.Vente
	if err := db.Select("id", "societe_id").First(&v, venteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound("Vente", venteID)
		}
		return nil, fmt.Errorf("lecture vente: %w", err)
	}
	if scope != nil && v.SocieteID != *scope {
		return nil, apperror.NewForbidden("Cette vente appartient à une autre société.")
	}

	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		barcode = s.GenerateBarcode()
	}
	t := models.Ticket{Barcode: barcode, VenteID: venteID, CreatedAt: s.now()}
	if err := db.Omit(clause.Associations).Create(&t).Error; err != nil {
		return nil, fmt.Errorf("création ticket: %w", err)
	}
	metrics.TicketsIssued.Inc()
	return s.Get(ctx, t.ID)
}

// MarkPrinted sets the printed flag. A ticket already printed keeps its
// first print date.
func (s *TicketService) MarkPrinted(ctx context.Context, id uint) (*models.Ticket, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Printed {
		return t, nil
	}
	now := s.now()
	err = s.db.WithContext(ctx).Model(&models.Ticket{}).Where("id = ?", id).
		Updates(map[string]any{"printed": true, "printed_at": now}).Error
	if err != nil {
		return nil, fmt.Errorf("impression ticket: %w", err)
	}
	t.Printed = true
	t.PrintedAt = &now
	return t, nil
}

// Receipt renders the plain-text receipt of a ticket.
func (s *TicketService) Receipt(ctx context.Context, id uint) (string, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if t.Vente == nil {
		return "", apperror.NewNotFound("Vente", t.VenteID)
	}
	v := t.Vente

	data := receiptData{
		Barcode:   t.Barcode,
		Date:      v.Date.Format("02/01/2006 15:04"),
		Article:   v.Article,
		Lot:       v.Lot,
		Qty:       v.Qty,
		UnitPrice: v.UnitPrice.StringFixed(2),
		Total:     v.TotalPrice.StringFixed(2),
	}
	if v.Societe != nil {
		data.Societe = v.Societe.Name
		data.Address = v.Societe.Address
	}

	var buf bytes.Buffer
	if err := receiptTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendu reçu: %w", err)
	}
	return buf.String(), nil
}
