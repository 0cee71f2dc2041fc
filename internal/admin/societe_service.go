package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stock-backend/internal/apperror"
	"stock-backend/internal/models"

	"gorm.io/gorm"
)

type SocieteInput struct {
	Name    string `json:"nom"`
	Address string `json:"adresse"`
}

// SocieteDetail is a société with the number of rows that depend on it.
type SocieteDetail struct {
	models.Societe
	StockCount int64 `json:"nombreStocks"`
	VenteCount int64 `json:"nombreVentes"`
}

type SocieteService struct {
	db *gorm.DB
}

func NewSocieteService(db *gorm.DB) *SocieteService {
	return &SocieteService{db: db}
}

func (s *SocieteService) List(ctx context.Context) ([]models.Societe, error) {
	var societes []models.Societe
	if err := s.db.WithContext(ctx).Order("name").Find(&societes).Error; err != nil {
		return nil, fmt.Errorf("liste des sociétés: %w", err)
	}
	return societes, nil
}

func (s *SocieteService) Get(ctx context.Context, id uint) (*SocieteDetail, error) {
	db := s.db.WithContext(ctx)

	var societe models.Societe
	if err := db.First(&societe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound("Société", id)
		}
		return nil, fmt.Errorf("lecture société: %w", err)
	}

	detail := &SocieteDetail{Societe: societe}
	if err := db.Model(&models.Stock{}).Where("societe_id = ?", id).Count(&detail.StockCount).Error; err != nil {
		return nil, fmt.Errorf("comptage des stocks: %w", err)
	}
	if err := db.Model(&models.Vente{}).Where("societe_id = ?", id).Count(&detail.VenteCount).Error; err != nil {
		return nil, fmt.Errorf("comptage des ventes: %w", err)
	}
	return detail, nil
}

func (s *SocieteService) Create(ctx context.Context, in SocieteInput) (*models.Societe, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	societe := models.Societe{Name: in.Name, Address: in.Address}
	if err := s.db.WithContext(ctx).Create(&societe).Error; err != nil {
		return nil, fmt.Errorf("création société: %w", err)
	}
	return &societe, nil
}

// Update returns the row before and after the change.
func (s *SocieteService) Update(ctx context.Context, id uint, in SocieteInput) (before, after *models.Societe, err error) {
	if err := in.normalize(); err != nil {
		return nil, nil, err
	}
	db := s.db.WithContext(ctx)

	var societe models.Societe
	if err := db.First(&societe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperror.NewNotFound("Société", id)
		}
		return nil, nil, fmt.Errorf("lecture société: %w", err)
	}
	old := societe

	societe.Name = in.Name
	societe.Address = in.Address
	if err := db.Save(&societe).Error; err != nil {
		return nil, nil, fmt.Errorf("mise à jour société: %w", err)
	}
	return &old, &societe, nil
}

// Delete refuses to remove a société that still owns stock rows or sales.
func (s *SocieteService) Delete(ctx context.Context, id uint) (*models.Societe, error) {
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if detail.StockCount > 0 || detail.VenteCount > 0 {
		return nil, apperror.NewInUse("Impossible de supprimer une société qui possède des stocks ou des ventes").
			WithDetail("nombreStocks", detail.StockCount).
			WithDetail("nombreVentes", detail.VenteCount)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("societe_id = ?", id).Update("societe_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Societe{}, id).Error
	})
	if err != nil {
		return nil, fmt.Errorf("suppression société: %w", err)
	}
	return &detail.Societe, nil
}

func (in *SocieteInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	if in.Name == "" {
		return apperror.NewValidation("Le nom de la société est obligatoire")
	}
	return nil
}
