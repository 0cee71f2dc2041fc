package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock is the quantity of one lot held by one company. Barcode usually
// carries the article code.
type Stock struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	SocieteID uint            `gorm:"not null;index" json:"societeId"`
	Societe   *Societe        `json:"societe,omitempty"`
	Barcode   string          `gorm:"size:100;index" json:"codeBarre"`
	LotNumber string          `gorm:"size:100" json:"numLot"`
	Qty       int             `gorm:"not null;default:0" json:"qteDispo"`
	PriceTTC  decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"prixTTC"`
	ExpiresAt *time.Time      `json:"dateExpiration"`
	ArticleID *uint           `gorm:"index" json:"articleId"`
	Article   *Article        `gorm:"constraint:OnDelete:RESTRICT" json:"article,omitempty"`
	LotID     *uint           `gorm:"index" json:"lotId"`
	Lot       *Lot            `gorm:"constraint:OnDelete:RESTRICT" json:"lot,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
