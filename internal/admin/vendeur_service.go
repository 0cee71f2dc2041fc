package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stock-backend/internal/apperror"
	"stock-backend/internal/auth"
	"stock-backend/internal/models"

	"gorm.io/gorm"
)

type CreateVendeurInput struct {
	Name      string `json:"nom"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	SocieteID *uint  `json:"societeId"`
}

// UpdateVendeurInput leaves the password untouched when Password is empty.
type UpdateVendeurInput struct {
	Name      string `json:"nom"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	SocieteID *uint  `json:"societeId"`
}

type VendeurService struct {
	db *gorm.DB
}

func NewVendeurService(db *gorm.DB) *VendeurService {
	return &VendeurService{db: db}
}

func (s *VendeurService) vendeurs(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleVendeur)
}

func (s *VendeurService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.vendeurs(ctx).Order("name").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("liste des vendeurs: %w", err)
	}
	return users, nil
}

func (s *VendeurService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.vendeurs(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound("Vendeur", id)
		}
		return nil, fmt.Errorf("lecture vendeur: %w", err)
	}
	return &user, nil
}

// Search matches the term against name and email, case-insensitively. An
// empty term lists every seller.
func (s *VendeurService) Search(ctx context.Context, term string) ([]models.User, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return s.List(ctx)
	}
	like := "%" + term + "%"

	var users []models.User
	err := s.vendeurs(ctx).
		Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like).
		Order("name").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("recherche vendeurs: %w", err)
	}
	return users, nil
}

func (s *VendeurService) Create(ctx context.Context, in CreateVendeurInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := auth.NormalizeEmail(in.Email)
	if name == "" {
		return nil, apperror.NewValidation("Le nom du vendeur est obligatoire")
	}
	if err := auth.ValidateEmail(email); err != nil {
		return nil, err
	}
	if len(in.Password) < auth.MinPasswordLength {
		return nil, apperror.NewValidation(fmt.Sprintf("Le mot de passe doit contenir au moins %d caractères", auth.MinPasswordLength))
	}

	db := s.db.WithContext(ctx)
	if err := s.ensureEmailFree(db, email, 0); err != nil {
		return nil, err
	}
	if err := s.ensureSociete(db, in.SocieteID); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleVendeur,
		SocieteID:    in.SocieteID,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("création vendeur: %w", err)
	}
	return &user, nil
}

func (s *VendeurService) Update(ctx context.Context, id uint, in UpdateVendeurInput) (before, after *models.User, err error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	old := *user

	name := strings.TrimSpace(in.Name)
	email := auth.NormalizeEmail(in.Email)
	if name == "" {
		return nil, nil, apperror.NewValidation("Le nom du vendeur est obligatoire")
	}
	if err := auth.ValidateEmail(email); err != nil {
		return nil, nil, err
	}

	db := s.db.WithContext(ctx)
	if err := s.ensureEmailFree(db, email, id); err != nil {
		return nil, nil, err
	}
	if err := s.ensureSociete(db, in.SocieteID); err != nil {
		return nil, nil, err
	}

	updates := map[string]any{
		"name":       name,
		"email":      email,
		"societe_id": in.SocieteID,
	}
	if in.Password != "" {
		if len(in.Password) < auth.MinPasswordLength {
			return nil, nil, apperror.NewValidation(fmt.Sprintf("Le mot de passe doit contenir au moins %d caractères", auth.MinPasswordLength))
		}
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, nil, err
		}
		updates["password_hash"] = hash
	}

	if err := db.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, nil, fmt.Errorf("mise à jour vendeur: %w", err)
	}
	after, err = s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return &old, after, nil
}

// Delete removes the seller; past sales keep their rows with no seller.
func (s *VendeurService) Delete(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Vente{}).Where("vendeur_id = ?", id).Update("vendeur_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		return nil, fmt.Errorf("suppression vendeur: %w", err)
	}
	return user, nil
}

func (s *VendeurService) ensureEmailFree(db *gorm.DB, email string, exceptID uint) error {
	var count int64
	q := db.Model(&models.User{}).Where("email = ?", email)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("vérification de l'email: %w", err)
	}
	if count > 0 {
		return apperror.NewDuplicate("Cet email est déjà utilisé", "email", email)
	}
	return nil
}

func (s *VendeurService) ensureSociete(db *gorm.DB, id *uint) error {
	if id == nil {
		return nil
	}
	var count int64
	if err := db.Model(&models.Societe{}).Where("id = ?", *id).Count(&count).Error; err != nil {
		return fmt.Errorf("vérification société: %w", err)
	}
	if count == 0 {
		return apperror.NewValidation(fmt.Sprintf("Société avec l'ID %d introuvable", *id))
	}
	return nil
}
