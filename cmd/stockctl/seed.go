package main

import (
	"context"
	"fmt"
	"time"

	"stock-backend/internal/auth"
	"stock-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	demoSellerEmail    = "vendeur@demo.local"
	demoSellerPassword = "vendeur123"
)

type demoArticle struct {
	code, name    string
	priceHT, ttc  string
	lot           string
	qty           int
	unitPrice     string
	expiresInDays int
}

var demoSocietes = []models.Societe{
	{Name: "Pharmacie du Port", Address: "2 quai de la Fosse, Nantes"},
	{Name: "Pharmacie Centrale", Address: "14 rue Crébillon, Nantes"},
}

var demoArticles = []demoArticle{
	{"DOL500", "Doliprane 500 mg", "2.10", "2.50", "D-2401", 120, "2.35", 240},
	{"BIA100", "Biafine 100 ml", "4.50", "5.40", "B-2312", 40, "5.10", 20},
	{"SMC30", "Smecta 30 sachets", "5.20", "6.20", "S-2405", 8, "6.00", 400},
}

type seedResult struct {
	Societes    int
	Articles    int
	Lots        int
	Stocks      int
	SellerEmail string
}

// seedDemo inserts a small data set. Rows are matched on their natural keys
// so it can run more than once.
func seedDemo(ctx context.Context, db *gorm.DB) (*seedResult, error) {
	res := &seedResult{SellerEmail: demoSellerEmail}
	now := time.Now()

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		societes := make([]models.Societe, len(demoSocietes))
		for i, s := range demoSocietes {
			societes[i] = s
			if err := tx.Where(models.Societe{Name: s.Name}).FirstOrCreate(&societes[i]).Error; err != nil {
				return fmt.Errorf("société %s: %w", s.Name, err)
			}
		}
		res.Societes = len(societes)

		for _, d := range demoArticles {
			article := models.Article{
				Code:     d.code,
				Name:     d.name,
				PriceHT:  decimal.RequireFromString(d.priceHT),
				PriceTTC: decimal.RequireFromString(d.ttc),
			}
			if err := tx.Where(models.Article{Code: d.code}).FirstOrCreate(&article).Error; err != nil {
				return fmt.Errorf("article %s: %w", d.code, err)
			}
			res.Articles++

			expires := now.AddDate(0, 0, d.expiresInDays)
			lot := models.Lot{
				ArticleID:    article.ID,
				Number:       d.lot,
				AvailableQty: d.qty,
				UnitPrice:    decimal.RequireFromString(d.unitPrice),
				ExpiresAt:    &expires,
			}
			if err := tx.Where(models.Lot{ArticleID: article.ID, Number: d.lot}).FirstOrCreate(&lot).Error; err != nil {
				return fmt.Errorf("lot %s: %w", d.lot, err)
			}
			res.Lots++

			for _, s := range societes {
				stock := models.Stock{
					SocieteID: s.ID,
					Barcode:   article.Code,
					LotNumber: lot.Number,
					Qty:       d.qty / len(societes),
					PriceTTC:  lot.UnitPrice,
					ExpiresAt: lot.ExpiresAt,
					ArticleID: &article.ID,
					LotID:     &lot.ID,
				}
				err := tx.Omit("Societe", "Article", "Lot").
					Where("societe_id = ? AND lot_id = ?", s.ID, lot.ID).
					FirstOrCreate(&stock).Error
				if err != nil {
					return fmt.Errorf("stock %s: %w", d.lot, err)
				}
				res.Stocks++
			}
		}

		hash, err := auth.HashPassword(demoSellerPassword)
		if err != nil {
			return err
		}
		seller := models.User{
			Name:         "Vendeur Démo",
			Email:        demoSellerEmail,
			PasswordHash: hash,
			Role:         models.RoleVendeur,
			SocieteID:    &societes[0].ID,
		}
		if err := tx.Where(models.User{Email: demoSellerEmail}).FirstOrCreate(&seller).Error; err != nil {
			return fmt.Errorf("vendeur: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
