package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"stock-backend/internal/apperror"
	"stock-backend/internal/models"

	"gorm.io/gorm"
)

type Service struct {
	db     *gorm.DB
	secret string
	ttl    time.Duration
}

func NewService(db *gorm.DB, secret string, ttl time.Duration) *Service {
	return &Service{db: db, secret: secret, ttl: ttl}
}

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func ValidateEmail(email string) error {
	if email == "" {
		return apperror.NewValidation("L'email est obligatoire")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperror.NewValidation("Format d'email invalide")
	}
	return nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewUnauthorized("Email ou mot de passe incorrect")
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, apperror.NewUnauthorized("Email ou mot de passe incorrect")
	}

	token, expires, err := GenerateToken(s.secret, s.ttl, &user)
	if err != nil {
		return nil, fmt.Errorf("signature du token: %w", err)
	}
	return &LoginResult{Token: token, ExpiresAt: expires, User: &user}, nil
}

// RegisterAdmin creates an administrator. Over HTTP it is only allowed while
// no administrator exists; the CLI passes force to add more.
func (s *Service) RegisterAdmin(ctx context.Context, name, email, password string, force bool) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" || password == "" {
		return nil, apperror.NewValidation("Nom, email et mot de passe obligatoires")
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.NewValidation(fmt.Sprintf("Le mot de passe doit contenir au moins %d caractères", MinPasswordLength))
	}

	db := s.db.WithContext(ctx)
	if !force {
		var count int64
		if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("comptage des administrateurs: %w", err)
		}
		if count > 0 {
			return nil, apperror.NewForbidden("Un administrateur existe déjà")
		}
	}
	if err := s.ensureEmailFree(db, email, 0); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := models.User{Name: name, Email: email, PasswordHash: hash, Role: models.RoleAdmin}
	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("création de l'administrateur: %w", err)
	}
	return &user, nil
}

func (s *Service) Me(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Societe").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound("Utilisateur", userID)
		}
		return nil, fmt.Errorf("lecture utilisateur: %w", err)
	}
	return &user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID uint, name, email string) (*models.User, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" {
		return nil, apperror.NewValidation("Le nom est obligatoire")
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if err := s.ensureEmailFree(db, email, userID); err != nil {
		return nil, err
	}

	if err := db.Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]any{"name": name, "email": email}).Error; err != nil {
		return nil, fmt.Errorf("mise à jour du profil: %w", err)
	}
	user.Name = name
	user.Email = email
	return user, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if !CheckPassword(user.PasswordHash, current) {
		return apperror.NewValidation("Mot de passe actuel incorrect")
	}
	if len(next) < MinPasswordLength {
		return apperror.NewValidation(fmt.Sprintf("Le mot de passe doit contenir au moins %d caractères", MinPasswordLength))
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Update("password_hash", hash).Error; err != nil {
		return fmt.Errorf("changement du mot de passe: %w", err)
	}
	return nil
}

func (s *Service) ensureEmailFree(db *gorm.DB, email string, exceptID uint) error {
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
