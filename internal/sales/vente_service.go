package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stock-backend/internal/apperror"
	"stock-backend/internal/auth"
	"stock-backend/internal/logger"
	"stock-backend/internal/metrics"
	"stock-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	saleKindPriced = "calcul"
	saleKindLegacy = "legacy"
)

// SaleResponse is returned by the priced sale endpoints.
type SaleResponse struct {
	ID            uint            `json:"id"`
	SocieteID     uint            `json:"societeId"`
	SocieteName   string          `json:"societeNom"`
	Article       string          `json:"article"`
	Lot           string          `json:"lot"`
	Qty           int             `json:"qteVendu"`
	Date          time.Time       `json:"date"`
	UnitPrice     decimal.Decimal `json:"prixUnitaire"`
	TotalPrice    decimal.Decimal `json:"prixTotal"`
	TicketPrinted bool            `json:"ticketImprime"`
	Tickets       []models.Ticket `json:"tickets"`
}

// Simulation is what a priced sale would do, without any write.
type Simulation struct {
	SocieteName    string          `json:"societeNom"`
	Article        string          `json:"article"`
	ArticleCode    string          `json:"codeArticle"`
	Lot            string          `json:"lot"`
	Qty            int             `json:"quantite"`
	AvailableQty   int             `json:"quantiteDisponible"`
	RemainingQty   int             `json:"quantiteRestante"`
	UnitPrice      decimal.Decimal `json:"prixUnitaire"`
	TotalPrice     decimal.Decimal `json:"prixTotal"`
	TicketsToPrint int             `json:"ticketsAGenerer"`
	ExpiresAt      *time.Time      `json:"dateExpiration"`
}

// RawVenteInput is the legacy sale body: article and lot by name, no pricing.
type RawVenteInput struct {
	SocieteID uint       `json:"societeId"`
	Article   string     `json:"article"`
	Lot       string     `json:"lot"`
	Qty       int        `json:"qteVendu"`
	Date      *time.Time `json:"date"`
}

func (in *RawVenteInput) validate() []string {
	in.Article = strings.TrimSpace(in.Article)
	in.Lot = strings.TrimSpace(in.Lot)

	var errs []string
	if in.SocieteID == 0 {
		errs = append(errs, "L'ID de la société est requis et doit être positif.")
	}
	if in.Article == "" {
		errs = append(errs, "L'article est requis.")
	}
	if in.Lot == "" {
		errs = append(errs, "Le lot est requis.")
	}
	if in.Qty <= 0 {
		errs = append(errs, "La quantité doit être supérieure à zéro.")
	}
	return errs
}

type VenteService struct {
	db       *gorm.DB
	now      func() time.Time
	onChange []func(context.Context)
}

func NewVenteService(db *gorm.DB) *VenteService {
	return &VenteService{db: db, now: time.Now}
}

// OnChange registers fn to run after every committed sale mutation.
func (s *VenteService) OnChange(fn func(context.Context)) {
	s.onChange = append(s.onChange, fn)
}

func (s *VenteService) changed(ctx context.Context) {
	for _, fn := range s.onChange {
		fn(ctx)
	}
}

func (s *VenteService) preload(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Societe").Preload("Tickets", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	})
}

func (s *VenteService) List(ctx context.Context) ([]models.Vente, error) {
	var ventes []models.Vente
	if err := s.preload(ctx).Order("date DESC, id DESC").Find(&ventes).Error; err != nil {
		return nil, fmt.Errorf("liste des ventes: %w", err)
	}
	return ventes, nil
}

func (s *VenteService) Get(ctx context.Context, id uint) (*models.Vente, error) {
	var v models.Vente
	if err := s.preload(ctx).First(&v, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound("Vente", id)
		}
		return nil, fmt.Errorf("lecture vente: %w", err)
	}
	return &v, nil
}

func (s *VenteService) ListBySociete(ctx context.Context, societeID uint) ([]models.Vente, error) {
	var ventes []models.Vente
	err := s.preload(ctx).Where("societe_id = ?", societeID).Order("date DESC, id DESC").Find(&ventes).Error
	if err != nil {
		return nil, fmt.Errorf("ventes de la société: %w", err)
	}
	return ventes, nil
}

type saleTarget struct {
	societe models.Societe
	article models.Article
	lot     models.Lot
}

// lookup resolves the société, the article by code and the lot by number
// within that article. Missing rows are client errors.
func lookup(db *gorm.DB, req *SaleRequest) (*saleTarget, error) {
	var t saleTarget
	if err := db.First(&t.societe, req.SocieteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewValidation(fmt.Sprintf("Société avec l'ID %d introuvable.", req.SocieteID)).
				WithDetail("societeId", req.SocieteID)
		}
		return nil, fmt.Errorf("lecture société: %w", err)
	}
	if err := db.Where("code = ?", req.ArticleCode).First(&t.article).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewValidation(fmt.Sprintf("Article avec le code '%s' introuvable.", req.ArticleCode)).
				WithDetail("codeArticle", req.ArticleCode)
		}
		return nil, fmt.Errorf("lecture article: %w", err)
	}
	err := db.Where("article_id = ? AND number = ?", t.article.ID, req.LotNumber).First(&t.lot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewValidation(fmt.Sprintf("Lot '%s' introuvable pour l'article '%s'.", req.LotNumber, req.ArticleCode)).
				WithDetail("numLot", req.LotNumber)
		}
		return nil, fmt.Errorf("lecture lot: %w", err)
	}
	return &t, nil
}

func checkRequest(p auth.Principal, req *SaleRequest) error {
	if errs := req.Validate(); len(errs) > 0 {
		return apperror.NewValidationErrors(errs)
	}
	if !p.IsAdmin() && p.SocieteID != nil && *p.SocieteID != req.SocieteID {
		return apperror.NewForbidden("Vous ne pouvez vendre que pour votre société.")
	}
	return nil
}

// takeFromLot decrements the lot only if enough quantity is left.
func takeFromLot(tx *gorm.DB, lot *models.Lot, qty int) error {
	res := tx.Model(&models.Lot{}).
		Where("id = ? AND available_qty >= ?", lot.ID, qty).
		Update("available_qty", gorm.Expr("available_qty - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("décrément lot: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var current models.Lot
		if err := tx.First(&current, lot.ID).Error; err != nil {
			return fmt.Errorf("relecture lot: %w", err)
		}
		return apperror.NewInsufficientStock(lot.Number, qty, current.AvailableQty)
	}
	return nil
}

func giveToLot(tx *gorm.DB, lotID uint, qty int) error {
	err := tx.Model(&models.Lot{}).Where("id = ?", lotID).
		Update("available_qty", gorm.Expr("available_qty + ?", qty)).Error
	if err != nil {
		return fmt.Errorf("restitution lot: %w", err)
	}
	return nil
}

// adjustStock moves the société's stock row for the lot by delta, never
// below zero. A société without such a row is left alone.
func adjustStock(tx *gorm.DB, societeID, lotID uint, delta int) error {
	var st models.Stock
	err := tx.Where("societe_id = ? AND lot_id = ?", societeID, lotID).Order("id").First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lecture stock: %w", err)
	}
	qty := max(st.Qty+delta, 0)
	if err := tx.Model(&st).Update("qty", qty).Error; err != nil {
		return fmt.Errorf("mise à jour stock: %w", err)
	}
	return nil
}

// CreateWithPricing records a sale at the computed price, takes the quantity
// from the lot and the société's stock row, and issues one ticket per unit
// when asked to.
func (s *VenteService) CreateWithPricing(ctx context.Context, p auth.Principal, req SaleRequest) (*SaleResponse, error) {
	if err := checkRequest(p, &req); err != nil {
		return nil, err
	}

	now := s.now()
	var resp *SaleResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := lookup(tx, &req)
		if err != nil {
			return err
		}
		if t.lot.AvailableQty < req.Qty {
			return apperror.NewInsufficientStock(t.lot.Number, req.Qty, t.lot.AvailableQty)
		}
		if err := takeFromLot(tx, &t.lot, req.Qty); err != nil {
			return err
		}
		if err := adjustStock(tx, t.societe.ID, t.lot.ID, -req.Qty); err != nil {
			return err
		}

		unit, total := ComputePrice(req.SuppliedPrice, t.lot.UnitPrice, req.Qty)
		v := models.Vente{
			SocieteID:  t.societe.ID,
			Article:    t.article.Name,
			Lot:        t.lot.Number,
			Qty:        req.Qty,
			Date:       now,
			UnitPrice:  unit,
			TotalPrice: total,
			ArticleID:  &t.article.ID,
			LotID:      &t.lot.ID,
		}
		if req.SaleDate != nil {
			v.Date = *req.SaleDate
		}
		if p.UserID != 0 {
			v.VendeurID = &p.UserID
		}
		if err := tx.Omit(clause.Associations).Create(&v).Error; err != nil {
			return fmt.Errorf("création vente: %w", err)
		}

		var tickets []models.Ticket
		if req.WantsTickets() {
			tickets = make([]models.Ticket, 0, req.Qty)
			for i := 1; i <= req.Qty; i++ {
				tickets = append(tickets, models.Ticket{
					Barcode:   TicketBarcode(t.article.Code, t.lot.Number, now, i),
					CreatedAt: now,
					VenteID:   v.ID,
				})
			}
			if err := tx.Omit(clause.Associations).CreateInBatches(&tickets, 100).Error; err != nil {
				return fmt.Errorf("création tickets: %w", err)
			}
		}

		resp = newSaleResponse(v, t.societe.Name, tickets)
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordSale(saleKindPriced, resp.Qty, len(resp.Tickets))
	logger.Info(ctx, "vente enregistrée",
		"vente_id", resp.ID, "societe_id", resp.SocieteID, "lot", resp.Lot,
		"qty", resp.Qty, "total", resp.TotalPrice.String())
	s.changed(ctx)
	return resp, nil
}

// Simulate runs the checks and pricing of CreateWithPricing without writing.
func (s *VenteService) Simulate(ctx context.Context, p auth.Principal, req SaleRequest) (*Simulation, error) {
	if err := checkRequest(p, &req); err != nil {
		return nil, err
	}
	t, err := lookup(s.db.WithContext(ctx), &req)
	if err != nil {
		return nil, err
	}
	if t.lot.AvailableQty < req.Qty {
		return nil, apperror.NewInsufficientStock(t.lot.Number, req.Qty, t.lot.AvailableQty)
	}

	unit, total := ComputePrice(req.SuppliedPrice, t.lot.UnitPrice, req.Qty)
	sim := &Simulation{
		SocieteName:  t.societe.Name,
		Article:      t.article.Name,
		ArticleCode:  t.article.Code,
		Lot:          t.lot.Number,
		Qty:          req.Qty,
		AvailableQty: t.lot.AvailableQty,
		RemainingQty: t.lot.AvailableQty - req.Qty,
		UnitPrice:    unit,
		TotalPrice:   total,
		ExpiresAt:    t.lot.ExpiresAt,
	}
	if req.WantsTickets() {
		sim.TicketsToPrint = req.Qty
	}
	return sim, nil
}

// UpdateWithPricing rewrites a sale and moves quantities between lots. When
// the lot is unchanged only the increase has to be available.
func (s *VenteService) UpdateWithPricing(ctx context.Context, id uint, req SaleRequest) (*models.Vente, *SaleResponse, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, nil, apperror.NewValidationErrors(errs)
	}

	var before models.Vente
	var resp *SaleResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&before, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NewNotFound("Vente", id)
			}
			return fmt.Errorf("lecture vente: %w", err)
		}
		t, err := lookup(tx, &req)
		if err != nil {
			return err
		}

		sameLot := before.LotID != nil && *before.LotID == t.lot.ID
		needed := req.Qty
		if sameLot {
			needed = req.Qty - before.Qty
		}
		if needed > 0 && t.lot.AvailableQty < needed {
			return apperror.NewInsufficientStock(t.lot.Number, needed, t.lot.AvailableQty)
		}

		if before.LotID != nil {
			if err := giveToLot(tx, *before.LotID, before.Qty); err != nil {
				return err
			}
			if err := adjustStock(tx, before.SocieteID, *before.LotID, before.Qty); err != nil {
				return err
			}
		}
		// The old quantity is back on its lot, so the guarded decrement of the
		// full new quantity also catches sales committed since the read above.
		if err := takeFromLot(tx, &t.lot, req.Qty); err != nil {
			return err
		}
		if err := adjustStock(tx, t.societe.ID, t.lot.ID, -req.Qty); err != nil {
			return err
		}

		unit, total := ComputePrice(req.SuppliedPrice, t.lot.UnitPrice, req.Qty)
		v := before
		v.SocieteID = t.societe.ID
		v.Article = t.article.Name
		v.Lot = t.lot.Number
		v.Qty = req.Qty
		v.UnitPrice = unit
		v.TotalPrice = total
		v.ArticleID = &t.article.ID
		v.LotID = &t.lot.ID
		if req.SaleDate != nil {
			v.Date = *req.SaleDate
		}
		if err := tx.Omit(clause.Associations).Save(&v).Error; err != nil {
			return fmt.Errorf("mise à jour vente: %w", err)
		}

		resp = newSaleResponse(v, t.societe.Name, nil)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info(ctx, "vente modifiée", "vente_id", id, "qty", resp.Qty)
	s.changed(ctx)
	return &before, resp, nil
}

// CreateRaw stores a sale as given, without pricing nor quantity movement.
func (s *VenteService) CreateRaw(ctx context.Context, p auth.Principal, in RawVenteInput) (*models.Vente, error) {
	if errs := in.validate(); len(errs) > 0 {
		return nil, apperror.NewValidationErrors(errs)
	}
	db := s.db.WithContext(ctx)
	if err := ensureSociete(db, in.SocieteID); err != nil {
		return nil, err
	}

	v := models.Vente{
		SocieteID:  in.SocieteID,
		Article:    in.Article,
		Lot:        in.Lot,
		Qty:        in.Qty,
		Date:       s.now(),
		UnitPrice:  decimal.Zero,
		TotalPrice: decimal.Zero,
	}
	if in.Date != nil {
		v.Date = *in.Date
	}
	if p.UserID != 0 {
		v.VendeurID = &p.UserID
	}
	if err := db.Omit(clause.Associations).Create(&v).Error; err != nil {
		return nil, fmt.Errorf("création vente: %w", err)
	}

	metrics.RecordSale(saleKindLegacy, v.Qty, 0)
	s.changed(ctx)
	return s.Get(ctx, v.ID)
}

func (s *VenteService) UpdateRaw(ctx context.Context, id uint, in RawVenteInput) (before, after *models.Vente, err error) {
	if errs := in.validate(); len(errs) > 0 {
		return nil, nil, apperror.NewValidationErrors(errs)
	}
	db := s.db.WithContext(ctx)

	var v models.Vente
	if err := db.First(&v, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperror.NewNotFound("Vente", id)
		}
		return nil, nil, fmt.Errorf("lecture vente: %w", err)
	}
	old := v
	if err := ensureSociete(db, in.SocieteID); err != nil {
		return nil, nil, err
	}

	v.SocieteID = in.SocieteID
	v.Article = in.Article
	v.Lot = in.Lot
	v.Qty = in.Qty
	if in.Date != nil {
		v.Date = *in.Date
	}
	if err := db.Omit(clause.Associations).Save(&v).Error; err != nil {
		return nil, nil, fmt.Errorf("mise à jour vente: %w", err)
	}

	s.changed(ctx)
	after, err = s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return &old, after, nil
}

// Delete removes the sale and its tickets. Quantities are not restored.
func (s *VenteService) Delete(ctx context.Context, id uint) (*models.Vente, error) {
	v, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("vente_id = ?", id).Delete(&models.Ticket{}).Error; err != nil {
			return fmt.Errorf("suppression tickets: %w", err)
		}
		if err := tx.Delete(&models.Vente{}, id).Error; err != nil {
			return fmt.Errorf("suppression vente: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx)
	return v, nil
}

func ensureSociete(db *gorm.DB, id uint) error {
	var count int64
	if err := db.Model(&models.Societe{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("vérification société: %w", err)
	}
	if count == 0 {
		return apperror.NewValidation(fmt.Sprintf("Société avec l'ID %d introuvable.", id)).
			WithDetail("societeId", id)
	}
	return nil
}

func newSaleResponse(v models.Vente, societeName string, tickets []models.Ticket) *SaleResponse {
	if tickets == nil {
		tickets = []models.Ticket{}
	}
	return &SaleResponse{
		ID:            v.ID,
		SocieteID:     v.SocieteID,
		SocieteName:   societeName,
		Article:       v.Article,
		Lot:           v.Lot,
		Qty:           v.Qty,
		Date:          v.Date,
		UnitPrice:     v.UnitPrice,
		TotalPrice:    v.TotalPrice,
		TicketPrinted: len(tickets) > 0,
		Tickets:       tickets,
	}
}
