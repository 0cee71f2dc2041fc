package inventory

import (
	"context"
	"testing"
	"time"

	"stock-backend/internal/apperror"
	"stock-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockService_CreateDerivesFromLot(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewStockService(db)
	ctx := context.Background()

	s := testutil.CreateSociete(t, db, "S1")
	a := testutil.CreateArticle(t, db, "A1", "Aspirine", "4.00")
	exp := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	lot := testutil.CreateLot(t, db, a.ID, "L1", 10, "3.75", &exp)

	stock, err := svc.Create(ctx, StockInput{SocieteID: s.ID, LotID: &lot.ID, Qty: 4})
	require.NoError(t, err)

	assert.Equal(t, "A1", stock.Barcode)
	assert.Equal(t, "L1", stock.LotNumber)
	require.NotNil(t, stock.ArticleID)
	assert.Equal(t, a.ID, *stock.ArticleID)
	assert.True(t, stock.PriceTTC.Equal(testutil.Dec("3.75")))
	require.NotNil(t, stock.ExpiresAt)
	assert.True(t, stock.ExpiresAt.Equal(exp))
}

func TestStockService_CreateFallsBackToArticlePrice(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewStockService(db)
	s := testutil.CreateSociete(t, db, "S1")
	a := testutil.CreateArticle(t, db, "A1", "Aspirine", "4.00")

	stock, err := svc.Create(context.Background(), StockInput{SocieteID: s.ID, ArticleID: &a.ID, Qty: 1})
	require.NoError(t, err)
	assert.True(t, stock.PriceTTC.Equal(testutil.Dec("4.00")))
	assert.Nil(t, stock.LotID)
}

func TestStockService_CreateValidation(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewStockService(db)
	ctx := context.Background()

	s := testutil.CreateSociete(t, db, "S1")
	a := testutil.CreateArticle(t, db, "A1", "Aspirine", "4.00")
	b := testutil.CreateArticle(t, db, "B1", "Biafine", "6.00")
	lotB := testutil.CreateLot(t, db, b.ID, "LB", 10, "6.00", nil)
	missing := uint(999)

	tests := []struct {
		name string
		in   StockInput
	}{
		{"unknown societe", StockInput{SocieteID: 999, ArticleID: &a.ID}},
		{"unknown article", StockInput{SocieteID: s.ID, ArticleID: &missing}},
		{"unknown lot", StockInput{SocieteID: s.ID, LotID: &missing}},
		{"lot of another article", StockInput{SocieteID: s.ID, ArticleID: &a.ID, LotID: &lotB.ID}},
		{"negative qty", StockInput{SocieteID: s.ID, ArticleID: &a.ID, Qty: -1}},
		{"no barcode", StockInput{SocieteID: s.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.in)
			assert.True(t, apperror.IsCode(err, apperror.CodeValidation), "got %v", err)
		})
	}
}

func TestStockService_Consultation(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewStockService(db)
	ctx := context.Background()

	s := testutil.CreateSociete(t, db, "Officine")
	a := testutil.CreateArticle(t, db, "A1", "Aspirine", "4.00")
	lot := testutil.CreateLot(t, db, a.ID, "L1", 10, "3.75", nil)
	testutil.CreateStock(t, db, s.ID, a, lot, 6)

	rows, err := svc.Consultation(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Officine", rows[0].SocieteName)
	assert.Equal(t, "Aspirine", rows[0].ArticleName)
	assert.Equal(t, 6, rows[0].Qty)

	_, err = svc.Consultation(ctx, 999)
	assert.True(t, apperror.IsNotFound(err))
}

func TestStockService_UpdateAndDelete(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewStockService(db)
	ctx := context.Background()

	s := testutil.CreateSociete(t, db, "S1")
	a := testutil.CreateArticle(t, db, "A1", "Aspirine", "4.00")
	lot := testutil.CreateLot(t, db, a.ID, "L1", 10, "3.75", nil)
	stock := testutil.CreateStock(t, db, s.ID, a, lot, 6)

	before, after, err := svc.Update(ctx, stock.ID, StockInput{SocieteID: s.ID, LotID: &lot.ID, Qty: 2})
	require.NoError(t, err)
	assert.Equal(t, 6, before.Qty)
	assert.Equal(t, 2, after.Qty)

	_, err = svc.Delete(ctx, stock.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, stock.ID)
	assert.True(t, apperror.IsNotFound(err))
}
