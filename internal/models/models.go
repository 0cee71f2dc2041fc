// Package models holds the GORM entities of the stock backend.
package models

import "github.com/shopspring/decimal"

func init() {
	// Prices are rendered as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// All returns every entity handled by AutoMigrate, in dependency order.
func All() []any {
	return []any{
		&Societe{},
		&User{},
		&Article{},
		&Lot{},
		&Stock{},
		&Vente{},
		&Ticket{},
		&AuditLog{},
	}
}
