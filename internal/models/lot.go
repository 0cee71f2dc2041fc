package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Lot struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	ArticleID    uint            `gorm:"not null;uniqueIndex:idx_lot_article_number" json:"articleId"`
	Article      *Article        `json:"article,omitempty"`
	Number       string          `gorm:"size:100;not null;uniqueIndex:idx_lot_article_number" json:"numLot"`
	AvailableQty int             `gorm:"not null;default:0" json:"quantiteDisponible"`
	ExpiresAt    *time.Time      `json:"dateExpiration"`
	UnitPrice    decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"prixUnitaire"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}
