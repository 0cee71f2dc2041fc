package admin

import (
	"context"
	"testing"

	"stock-backend/internal/apperror"
	"stock-backend/internal/models"
	"stock-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSocieteService_CRUD(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewSocieteService(db)
	ctx := context.Background()

	_, err := svc.Create(ctx, SocieteInput{Name: "   "})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	created, err := svc.Create(ctx, SocieteInput{Name: " Pharma Nord ", Address: "Lille"})
	require.NoError(t, err)
	assert.Equal(t, "Pharma Nord", created.Name)

	before, after, err := svc.Update(ctx, created.ID, SocieteInput{Name: "Pharma Sud", Address: "Nice"})
	require.NoError(t, err)
	assert.Equal(t, "Pharma Nord", before.Name)
	assert.Equal(t, "Pharma Sud", after.Name)

	_, _, err = svc.Update(ctx, 999, SocieteInput{Name: "X"})
	assert.True(t, apperror.IsNotFound(err))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.Delete(ctx, created.ID)
	require.NoError(t, err)

	_, err = svc.Get(ctx, created.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestSocieteService_DeleteInUse(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewSocieteService(db)
	ctx := context.Background()

	societe := testutil.CreateSociete(t, db, "Centrale")
	article := testutil.CreateArticle(t, db, "A1", "Paracétamol", "3.50")
	lot := testutil.CreateLot(t, db, article.ID, "L1", 10, "3.00", nil)
	testutil.CreateStock(t, db, societe.ID, article, lot, 5)

	detail, err := svc.Get(ctx, societe.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), detail.StockCount)
	assert.Equal(t, int64(0), detail.VenteCount)

	_, err = svc.Delete(ctx, societe.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInUse))
}

func TestSocieteService_DeleteUnbindsSellers(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewSocieteService(db)
	ctx := context.Background()

	societe := testutil.CreateSociete(t, db, "Boutique")
	vendeur := testutil.CreateUser(t, db, "v@example.com", models.RoleVendeur, &societe.ID)

	_, err := svc.Delete(ctx, societe.ID)
	require.NoError(t, err)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, vendeur.ID).Error)
	assert.Nil(t, reloaded.SocieteID)
}
