// Package testutil provides in-memory databases and fixtures for tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"stock-backend/internal/database"
	"stock-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB opens a fresh shared-cache in-memory SQLite database and migrates it.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func CreateSociete(t *testing.T, db *gorm.DB, name string) models.Societe {
	t.Helper()
	s := models.Societe{Name: name, Address: "1 rue du Port"}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("create societe: %v", err)
	}
	return s
}

func CreateArticle(t *testing.T, db *gorm.DB, code, name, priceTTC string) models.Article {
	t.Helper()
	a := models.Article{Name: name, Code: code, PriceTTC: Dec(priceTTC), PriceHT: Dec(priceTTC)}
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("create article: %v", err)
	}
	return a
}

func CreateLot(t *testing.T, db *gorm.DB, articleID uint, number string, qty int, price string, expires *time.Time) models.Lot {
	t.Helper()
	l := models.Lot{ArticleID: articleID, Number: number, AvailableQty: qty, UnitPrice: Dec(price), ExpiresAt: expires}
	if err := db.Create(&l).Error; err != nil {
		t.Fatalf("create lot: %v", err)
	}
	return l
}

func CreateStock(t *testing.T, db *gorm.DB, societeID uint, article models.Article, lot models.Lot, qty int) models.Stock {
	t.Helper()
	s := models.Stock{
		SocieteID: societeID,
		Barcode:   article.Code,
		LotNumber: lot.Number,
		Qty:       qty,
		PriceTTC:  lot.UnitPrice,
		ExpiresAt: lot.ExpiresAt,
		ArticleID: &article.ID,
		LotID:     &lot.ID,
	}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("create stock: %v", err)
	}
	return s
}

func CreateUser(t *testing.T, db *gorm.DB, email string, role models.UserRole, societeID *uint) models.User {
	t.Helper()
	u := models.User{Name: email, Email: email, PasswordHash: "x", Role: role, SocieteID: societeID}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}
