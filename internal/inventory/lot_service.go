package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stock-backend/internal/apperror"
	"stock-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LotInput struct {
	ArticleID    uint            `json:"articleId"`
	Number       string          `json:"numLot"`
	AvailableQty int             `json:"quantiteDisponible"`
	ExpiresAt    *time.Time      `json:"dateExpiration"`
	UnitPrice    decimal.Decimal `json:"prixUnitaire"`
}

func (in *LotInput) normalize() error {
	in.Number = strings.TrimSpace(in.Number)

	var problems []string
	if in.ArticleID == 0 {
		problems = append(problems, "L'article est obligatoire")
	}
	if in.Number == "" {
		problems = append(problems, "Le numéro de lot est obligatoire")
	}
	if in.AvailableQty < 0 {
		problems = append(problems, "La quantité disponible doit être positive ou nulle")
	}
	if in.UnitPrice.IsNegative() {
		problems = append(problems, "Le prix unitaire doit être positif ou nul")
	}
	if len(problems) > 0 {
		return apperror.NewValidationErrors(problems)
	}
	return nil
}

// LotOption is the light projection used by sale forms.
type LotOption struct {
	ID           uint            `json:"id"`
	Number       string          `json:"numLot"`
	AvailableQty int             `json:"quantiteDisponible"`
	UnitPrice    decimal.Decimal `json:"prixUnitaire"`
	ExpiresAt    *time.Time      `json:"dateExpiration"`
}

type LotService struct {
	db *gorm.DB
}

func NewLotService(db *gorm.DB) *LotService {
	return &LotService{db: db}
}

func (s *LotService) List(ctx context.Context) ([]models.Lot, error) {
	var lots []models.Lot
	if err := s.db.WithContext(ctx).Preload("Article").Order("id").Find(&lots).Error; err != nil {
		return nil, fmt.Errorf("liste des lots: %w", err)
	}
	return lots, nil
}

func (s *LotService) Get(ctx context.Context, id uint) (*models.Lot, error) {
	var lot models.Lot
	if err := s.db.WithContext(ctx).Preload("Article").First(&lot, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound("Lot", id)
		}
		return nil, fmt.Errorf("lecture lot: %w", err)
	}
	return &lot, nil
}

func (s *LotService) ListByArticle(ctx context.Context, articleID uint) ([]models.Lot, error) {
	var lots []models.Lot
	if err := s.db.WithContext(ctx).Where("article_id = ?", articleID).Order("id").Find(&lots).Error; err != nil {
		return nil, fmt.Errorf("lots de l'article: %w", err)
	}
	return lots, nil
}

// ListForSelect returns the lots still in stock, earliest expiration first.
// Lots without an expiration date come last.
func (s *LotService) ListForSelect(ctx context.Context, articleID uint) ([]LotOption, error) {
	var lots []models.Lot
	err := s.db.WithContext(ctx).
		Where("article_id = ? AND available_qty > 0", articleID).
		Order("CASE WHEN expires_at IS NULL THEN 1 ELSE 0 END, expires_at, id").
		Find(&lots).Error
	if err != nil {
		return nil, fmt.Errorf("lots disponibles: %w", err)
	}

	out := make([]LotOption, 0, len(lots))
	for _, l := range lots {
		out = append(out, LotOption{
			ID:           l.ID,
			Number:       l.Number,
			AvailableQty: l.AvailableQty,
			UnitPrice:    l.UnitPrice,
			ExpiresAt:    l.ExpiresAt,
		})
	}
	return out, nil
}

func (s *LotService) Create(ctx context.Context, in LotInput) (*models.Lot, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if err := ensureArticle(db, in.ArticleID); err != nil {
		return nil, err
	}
	if err := ensureLotNumberFree(db, in.ArticleID, in.Number, 0); err != nil {
		return nil, err
	}

	lot := models.Lot{
		ArticleID:    in.ArticleID,
		Number:       in.Number,
		AvailableQty: in.AvailableQty,
		ExpiresAt:    in.ExpiresAt,
		UnitPrice:    in.UnitPrice,
	}
	if err := db.Create(&lot).Error; err != nil {
		return nil, fmt.Errorf("création lot: %w", err)
	}
	return &lot, nil
}

func (s *LotService) Update(ctx context.Context, id uint, in LotInput) (before, after *models.Lot, err error) {
	if err := in.normalize(); err != nil {
		return nil, nil, err
	}
	db := s.db.WithContext(ctx)

	var lot models.Lot
	if err := db.First(&lot, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperror.NewNotFound("Lot", id)
		}
		return nil, nil, fmt.Errorf("lecture lot: %w", err)
	}
	if err := ensureArticle(db, in.ArticleID); err != nil {
		return nil, nil, err
	}
	if err := ensureLotNumberFree(db, in.ArticleID, in.Number, id); err != nil {
		return nil, nil, err
	}
	old := lot

	err = db.Model(&lot).Updates(map[string]any{
		"article_id":    in.ArticleID,
		"number":        in.Number,
		"available_qty": in.AvailableQty,
		"expires_at":    in.ExpiresAt,
		"unit_price":    in.UnitPrice,
	}).Error
	if err != nil {
		return nil, nil, fmt.Errorf("mise à jour lot: %w", err)
	}

	after, err = s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return &old, after, nil
}

// UpdateQuantity overwrites the available quantity of a lot.
func (s *LotService) UpdateQuantity(ctx context.Context, id uint, qty int) (before, after *models.Lot, err error) {
	if qty < 0 {
		return nil, nil, apperror.NewValidation("La quantité doit être positive ou nulle")
	}
	lot, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	old := *lot

	if err := s.db.WithContext(ctx).Model(&models.Lot{}).Where("id = ?", id).
		Update("available_qty", qty).Error; err != nil {
		return nil, nil, fmt.Errorf("mise à jour de la quantité: %w", err)
	}
	lot.AvailableQty = qty
	return &old, lot, nil
}

// Delete refuses lots referenced by stock rows or sales.
func (s *LotService) Delete(ctx context.Context, id uint) (*models.Lot, error) {
	lot, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var stocks, ventes int64
	if err := db.Model(&models.Stock{}).Where("lot_id = ?", id).Count(&stocks).Error; err != nil {
		return nil, fmt.Errorf("vérification des stocks: %w", err)
	}
	if err := db.Model(&models.Vente{}).Where("lot_id = ?", id).Count(&ventes).Error; err != nil {
		return nil, fmt.Errorf("vérification des ventes: %w", err)
	}
	if stocks > 0 || ventes > 0 {
		return nil, apperror.NewInUse("Impossible de supprimer un lot référencé par des stocks ou des ventes").
			WithDetail("nombreStocks", stocks).
			WithDetail("nombreVentes", ventes)
	}

	if err := db.Delete(&models.Lot{}, id).Error; err != nil {
		return nil, fmt.Errorf("suppression lot: %w", err)
	}
	return lot, nil
}

func ensureArticle(db *gorm.DB, id uint) error {
	var count int64
	if err := db.Model(&models.Article{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("vérification article: %w", err)
	}
	if count == 0 {
		return apperror.NewValidation(fmt.Sprintf("Article avec l'ID %d introuvable", id))
	}
	return nil
}

func ensureLotNumberFree(db *gorm.DB, articleID uint, number string, exceptID uint) error {
	var count int64
	q := db.Model(&models.Lot{}).Where("article_id = ? AND number = ?", articleID, number)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("vérification du numéro de lot: %w", err)
	}
	if count > 0 {
		return apperror.NewDuplicate("Ce numéro de lot existe déjà pour cet article", "numLot", number)
	}
	return nil
}
