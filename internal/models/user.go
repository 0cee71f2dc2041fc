package models

import "time"

type UserRole string

const (
	RoleAdmin   UserRole = "Administrateur"
	RoleVendeur UserRole = "Vendeur"
)

// User covers both administrators and sellers. Sellers may be bound to one
// company through SocieteID.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SocieteID    *uint     `gorm:"index" json:"societeId"`
	Societe      *Societe  `gorm:"constraint:OnDelete:SET NULL" json:"societe,omitempty"`
	Name         string    `gorm:"size:100;not null" json:"nom"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         UserRole  `gorm:"size:20;not null" json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
