package models

import "time"

type Ticket struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Barcode   string     `gorm:"size:150;not null;index" json:"codeBarre"`
	CreatedAt time.Time  `json:"dateCreation"`
	Printed   bool       `gorm:"not null;default:false" json:"isImprime"`
	PrintedAt *time.Time `json:"dateImpression"`
	VenteID   uint       `gorm:"not null;index" json:"venteId"`
	Vente     *Vente     `json:"vente,omitempty"`
}
