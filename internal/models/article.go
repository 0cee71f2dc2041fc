package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Article struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"size:200;not null" json:"nom"`
	Code      string          `gorm:"size:100;not null;uniqueIndex" json:"codeArticle"`
	PriceTTC  decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"prixTTC"`
	PriceHT   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"prixHT"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`

	Lots []Lot `gorm:"constraint:OnDelete:RESTRICT" json:"lots,omitempty"`
}
