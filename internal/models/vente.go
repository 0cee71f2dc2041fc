package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Vente is a sale. Article and Lot keep the name and number as they were at
// sale time; ArticleID and LotID link to the live rows when known.
type Vente struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	SocieteID  uint            `gorm:"not null;index" json:"societeId"`
	Societe    *Societe        `json:"societe,omitempty"`
	Article    string          `gorm:"size:200;not null" json:"article"`
	Lot        string          `gorm:"size:100;not null" json:"lot"`
	Qty        int             `gorm:"not null" json:"qteVendu"`
	Date       time.Time       `gorm:"not null;index" json:"date"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"prixUnitaire"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"prixTotal"`
	ArticleID  *uint           `gorm:"index" json:"articleId"`
	ArticleRef *Article        `gorm:"foreignKey:ArticleID;constraint:OnDelete:RESTRICT" json:"-"`
	LotID      *uint           `gorm:"index" json:"lotId"`
	LotRef     *Lot            `gorm:"foreignKey:LotID;constraint:OnDelete:RESTRICT" json:"-"`
	VendeurID  *uint           `gorm:"index" json:"vendeurId"`
	Vendeur    *User           `gorm:"foreignKey:VendeurID;constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`

	Tickets []Ticket `gorm:"constraint:OnDelete:CASCADE" json:"tickets,omitempty"`
}
