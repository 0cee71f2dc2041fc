package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stock-backend/internal/apperror"
	"stock-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const msgDuplicateCode = "Code article déjà utilisé."

type ArticleInput struct {
	Name     string          `json:"nom"`
	Code     string          `json:"codeArticle"`
	PriceTTC decimal.Decimal `json:"prixTTC"`
	PriceHT  decimal.Decimal `json:"prixHT"`
}

func (in *ArticleInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Code = strings.TrimSpace(in.Code)

	var problems []string
	if in.Name == "" {
		problems = append(problems, "Le nom de l'article est obligatoire")
	}
	if in.Code == "" {
		problems = append(problems, "Le code article est obligatoire")
	}
	if in.PriceTTC.IsNegative() {
		problems = append(problems, "Le prix TTC doit être positif ou nul")
	}
	if in.PriceHT.IsNegative() {
		problems = append(problems, "Le prix HT doit être positif ou nul")
	}
	if len(problems) > 0 {
		return apperror.NewValidationErrors(problems)
	}
	return nil
}

type ArticleService struct {
	db *gorm.DB
}

func NewArticleService(db *gorm.DB) *ArticleService {
	return &ArticleService{db: db}
}

func (s *ArticleService) withLots(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Lots", func(db *gorm.DB) *gorm.DB {
		return db.Order("lots.id")
	})
}

func (s *ArticleService) List(ctx context.Context) ([]models.Article, error) {
	var articles []models.Article
	if err := s.withLots(ctx).Order("name").Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("liste des articles: %w", err)
	}
	return articles, nil
}

func (s *ArticleService) Get(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	if err := s.withLots(ctx).First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound("Article", id)
		}
		return nil, fmt.Errorf("lecture article: %w", err)
	}
	return &article, nil
}

func (s *ArticleService) GetByCode(ctx context.Context, code string) (*models.Article, error) {
	code = strings.TrimSpace(code)
	var article models.Article
	if err := s.withLots(ctx).Where("code = ?", code).First(&article).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound("Article", code)
		}
		return nil, fmt.Errorf("lecture article par code: %w", err)
	}
	return &article, nil
}

// Search matches name or code containing term, ignoring case.
func (s *ArticleService) Search(ctx context.Context, term string) ([]models.Article, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return s.List(ctx)
	}
	like := "%" + term + "%"

	var articles []models.Article
	err := s.withLots(ctx).
		Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", like, like).
		Order("name").
		Find(&articles).Error
	if err != nil {
		return nil, fmt.Errorf("recherche articles: %w", err)
	}
	return articles, nil
}

// ListBySociete returns the articles stocked by a société, matched by the
// stock barcode or the stock's article link.
func (s *ArticleService) ListBySociete(ctx context.Context, societeID uint) ([]models.Article, error) {
	db := s.db.WithContext(ctx)
	codes := db.Model(&models.Stock{}).Select("barcode").Where("societe_id = ?", societeID)
	ids := db.Model(&models.Stock{}).Select("article_id").Where("societe_id = ? AND article_id IS NOT NULL", societeID)

	var articles []models.Article
	err := s.withLots(ctx).
		Where("code IN (?) OR id IN (?)", codes, ids).
		Order("name").
		Find(&articles).Error
	if err != nil {
		return nil, fmt.Errorf("articles de la société: %w", err)
	}
	return articles, nil
}

func (s *ArticleService) Create(ctx context.Context, in ArticleInput) (*models.Article, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if err := ensureCodeFree(db, in.Code, 0); err != nil {
		return nil, err
	}

	article := models.Article{
		Name:     in.Name,
		Code:     in.Code,
		PriceTTC: in.PriceTTC,
		PriceHT:  in.PriceHT,
	}
	if err := db.Create(&article).Error; err != nil {
		return nil, fmt.Errorf("création article: %w", err)
	}
	return &article, nil
}

func (s *ArticleService) Update(ctx context.Context, id uint, in ArticleInput) (before, after *models.Article, err error) {
	if err := in.normalize(); err != nil {
		return nil, nil, err
	}
	db := s.db.WithContext(ctx)

	var article models.Article
	if err := db.First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperror.NewNotFound("Article", id)
		}
		return nil, nil, fmt.Errorf("lecture article: %w", err)
	}
	if err := ensureCodeFree(db, in.Code, id); err != nil {
		return nil, nil, err
	}
	old := article

	err = db.Model(&article).Updates(map[string]any{
		"name":      in.Name,
		"code":      in.Code,
		"price_ttc": in.PriceTTC,
		"price_ht":  in.PriceHT,
	}).Error
	if err != nil {
		return nil, nil, fmt.Errorf("mise à jour article: %w", err)
	}

	after, err = s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return &old, after, nil
}

// Delete refuses articles that still have lots, stock rows or sales.
func (s *ArticleService) Delete(ctx context.Context, id uint) (*models.Article, error) {
	article, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(article.Lots) > 0 {
		return nil, apperror.NewInUse("Impossible de supprimer un article qui possède des lots").
			WithDetail("nombreLots", len(article.Lots))
	}

	db := s.db.WithContext(ctx)
	var refs int64
	if err := db.Model(&models.Stock{}).Where("article_id = ?", id).Count(&refs).Error; err != nil {
		return nil, fmt.Errorf("vérification des stocks: %w", err)
	}
	if refs == 0 {
		if err := db.Model(&models.Vente{}).Where("article_id = ?", id).Count(&refs).Error; err != nil {
			return nil, fmt.Errorf("vérification des ventes: %w", err)
		}
	}
	if refs > 0 {
		return nil, apperror.NewInUse("Impossible de supprimer un article référencé par des stocks ou des ventes")
	}

	if err := db.Delete(&models.Article{}, id).Error; err != nil {
		return nil, fmt.Errorf("suppression article: %w", err)
	}
	return article, nil
}

func ensureCodeFree(db *gorm.DB, code string, exceptID uint) error {
	var count int64
	q := db.Model(&models.Article{}).Where("code = ?", code)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("vérification du code article: %w", err)
	}
	if count > 0 {
		return apperror.NewDuplicate(msgDuplicateCode, "codeArticle", code)
	}
	return nil
}
