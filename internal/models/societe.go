package models

import "time"

// Societe is a tenant company owning stock rows and sales.
type Societe struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:200;not null" json:"nom"`
	Address   string    `gorm:"size:255" json:"adresse"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Stocks []Stock `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Ventes []Vente `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}
