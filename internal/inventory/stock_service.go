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

// StockInput describes a stock row. When ArticleID or LotID are given the
// barcode, lot number, price and expiration are derived from them; Barcode,
// LotNumber and PriceTTC are only used for rows without those links.
type StockInput struct {
	SocieteID uint             `json:"societeId"`
	ArticleID *uint            `json:"articleId"`
	LotID     *uint            `json:"lotId"`
	Barcode   string           `json:"codeBarre"`
	LotNumber string           `json:"numLot"`
	Qty       int              `json:"qteDispo"`
	PriceTTC  *decimal.Decimal `json:"prixTTC"`
}

// StockConsultation is the read-only view offered to sellers.
type StockConsultation struct {
	ID          uint            `json:"id"`
	Barcode     string          `json:"codeBarre"`
	ArticleName string          `json:"articleNom"`
	LotNumber   string          `json:"numLot"`
	Qty         int             `json:"qteDispo"`
	PriceTTC    decimal.Decimal `json:"prixTTC"`
	SocieteName string          `json:"societeNom"`
	ExpiresAt   *time.Time      `json:"dateExpiration"`
}

type StockService struct {
	db *gorm.DB
}

func NewStockService(db *gorm.DB) *StockService {
	return &StockService{db: db}
}

func (s *StockService) preload(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Societe").Preload("Article").Preload("Lot")
}

func (s *StockService) List(ctx context.Context) ([]models.Stock, error) {
	var stocks []models.Stock
	if err := s.preload(ctx).Order("id").Find(&stocks).Error; err != nil {
		return nil, fmt.Errorf("liste des stocks: %w", err)
	}
	return stocks, nil
}

func (s *StockService) Get(ctx context.Context, id uint) (*models.Stock, error) {
	var stock models.Stock
	if err := s.preload(ctx).First(&stock, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound("Stock", id)
		}
		return nil, fmt.Errorf("lecture stock: %w", err)
	}
	return &stock, nil
}

func (s *StockService) ListBySociete(ctx context.Context, societeID uint) ([]models.Stock, error) {
	var stocks []models.Stock
	if err := s.preload(ctx).Where("societe_id = ?", societeID).Order("id").Find(&stocks).Error; err != nil {
		return nil, fmt.Errorf("stocks de la société: %w", err)
	}
	return stocks, nil
}

func (s *StockService) Consultation(ctx context.Context, societeID uint) ([]StockConsultation, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Societe{}).Where("id = ?", societeID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("vérification société: %w", err)
	}
	if count == 0 {
		return nil, apperror.NewNotFound("Société", societeID)
	}

	stocks, err := s.ListBySociete(ctx, societeID)
	if err != nil {
		return nil, err
	}
	out := make([]StockConsultation, 0, len(stocks))
	for _, st := range stocks {
		row := StockConsultation{
			ID:        st.ID,
			Barcode:   st.Barcode,
			LotNumber: st.LotNumber,
			Qty:       st.Qty,
			PriceTTC:  st.PriceTTC,
			ExpiresAt: st.ExpiresAt,
		}
		if st.Societe != nil {
			row.SocieteName = st.Societe.Name
		}
		if st.Article != nil {
			row.ArticleName = st.Article.Name
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *StockService) Create(ctx context.Context, in StockInput) (*models.Stock, error) {
	var stock models.Stock
	if err := s.resolve(s.db.WithContext(ctx), in, &stock); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Omit("Societe", "Article", "Lot").Create(&stock).Error; err != nil {
		return nil, fmt.Errorf("création stock: %w", err)
	}
	return s.Get(ctx, stock.ID)
}

func (s *StockService) Update(ctx context.Context, id uint, in StockInput) (before, after *models.Stock, err error) {
	db := s.db.WithContext(ctx)

	var stock models.Stock
	if err := db.First(&stock, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperror.NewNotFound("Stock", id)
		}
		return nil, nil, fmt.Errorf("lecture stock: %w", err)
	}
	old := stock

	if err := s.resolve(db, in, &stock); err != nil {
		return nil, nil, err
	}
	if err := db.Omit("Societe", "Article", "Lot").Save(&stock).Error; err != nil {
		return nil, nil, fmt.Errorf("mise à jour stock: %w", err)
	}

	after, err = s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return &old, after, nil
}

func (s *StockService) Delete(ctx context.Context, id uint) (*models.Stock, error) {
	stock, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Delete(&models.Stock{}, id).Error; err != nil {
		return nil, fmt.Errorf("suppression stock: %w", err)
	}
	return stock, nil
}

// resolve validates in and fills the stored fields of dst. The price comes
// from the lot unit price, then the article price TTC.
func (s *StockService) resolve(db *gorm.DB, in StockInput, dst *models.Stock) error {
	in.Barcode = strings.TrimSpace(in.Barcode)
	in.LotNumber = strings.TrimSpace(in.LotNumber)

	var problems []string
	if in.SocieteID == 0 {
		problems = append(problems, "La société est obligatoire")
	}
	if in.Qty < 0 {
		problems = append(problems, "La quantité doit être positive ou nulle")
	}
	if in.PriceTTC != nil && in.PriceTTC.IsNegative() {
		problems = append(problems, "Le prix TTC doit être positif ou nul")
	}
	if in.ArticleID == nil && in.LotID == nil && in.Barcode == "" {
		problems = append(problems, "Le code-barres est obligatoire sans article ni lot")
	}
	if len(problems) > 0 {
		return apperror.NewValidationErrors(problems)
	}

	var societe models.Societe
	if err := db.First(&societe, in.SocieteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NewValidation(fmt.Sprintf("Société avec l'ID %d introuvable", in.SocieteID))
		}
		return fmt.Errorf("lecture société: %w", err)
	}

	var lot *models.Lot
	if in.LotID != nil {
		lot = &models.Lot{}
		if err := db.First(lot, *in.LotID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NewValidation(fmt.Sprintf("Lot avec l'ID %d introuvable", *in.LotID))
			}
			return fmt.Errorf("lecture lot: %w", err)
		}
		if in.ArticleID == nil {
			in.ArticleID = &lot.ArticleID
		} else if *in.ArticleID != lot.ArticleID {
			return apperror.NewValidation("Le lot n'appartient pas à l'article indiqué")
		}
	}

	var article *models.Article
	if in.ArticleID != nil {
		article = &models.Article{}
		if err := db.First(article, *in.ArticleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NewValidation(fmt.Sprintf("Article avec l'ID %d introuvable", *in.ArticleID))
			}
			return fmt.Errorf("lecture article: %w", err)
		}
	}

	dst.SocieteID = in.SocieteID
	dst.Qty = in.Qty
	dst.Barcode = in.Barcode
	dst.LotNumber = in.LotNumber
	dst.ArticleID = nil
	dst.LotID = nil
	dst.ExpiresAt = nil
	dst.PriceTTC = decimal.Zero
	if in.PriceTTC != nil {
		dst.PriceTTC = *in.PriceTTC
	}

	if article != nil {
		dst.ArticleID = &article.ID
		if dst.Barcode == "" {
			dst.Barcode = article.Code
		}
		dst.PriceTTC = article.PriceTTC
	}
	if lot != nil {
		dst.LotID = &lot.ID
		if dst.LotNumber == "" {
			dst.LotNumber = lot.Number
		}
		dst.PriceTTC = lot.UnitPrice
		dst.ExpiresAt = lot.ExpiresAt
	}
	return nil
}
