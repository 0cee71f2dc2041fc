package inventory

import (
	"context"
	"testing"

	"stock-backend/internal/apperror"
	"stock-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticleService_CreateDuplicateCode(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewArticleService(db)
	ctx := context.Background()

	created, err := svc.Create(ctx, ArticleInput{Name: "Doliprane", Code: " DOL500 ", PriceTTC: testutil.Dec("2.50"), PriceHT: testutil.Dec("2.10")})
	require.NoError(t, err)
	assert.Equal(t, "DOL500", created.Code)

	_, err = svc.Create(ctx, ArticleInput{Name: "Autre", Code: "DOL500"})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
	assert.Equal(t, "Code article déjà utilisé.", appErr.Message)
}

func TestArticleService_CreateValidation(t *testing.T) {
	svc := NewArticleService(testutil.NewDB(t))

	_, err := svc.Create(context.Background(), ArticleInput{PriceTTC: testutil.Dec("-1")})
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Len(t, appErr.Details["errors"], 3)
}

func TestArticleService_Update(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewArticleService(db)
	ctx := context.Background()

	a := testutil.CreateArticle(t, db, "A1", "Aspirine", "4.00")
	testutil.CreateArticle(t, db, "B1", "Biafine", "6.00")

	_, _, err := svc.Update(ctx, a.ID, ArticleInput{Name: "Aspirine", Code: "B1"})
	assert.True(t, apperror.IsCode(err, apperror.CodeDuplicate))

	_, _, err = svc.Update(ctx, 999, ArticleInput{Name: "X", Code: "X"})
	assert.True(t, apperror.IsNotFound(err))

	before, after, err := svc.Update(ctx, a.ID, ArticleInput{Name: "Aspirine 500", Code: "A1", PriceTTC: testutil.Dec("4.20")})
	require.NoError(t, err)
	assert.Equal(t, "Aspirine", before.Name)
	assert.Equal(t, "Aspirine 500", after.Name)
	assert.True(t, after.PriceTTC.Equal(testutil.Dec("4.20")))
}

func TestArticleService_SearchAndCode(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewArticleService(db)
	ctx := context.Background()

	a := testutil.CreateArticle(t, db, "PARA-1", "Paracétamol", "2.00")
	testutil.CreateLot(t, db, a.ID, "L1", 5, "1.90", nil)
	testutil.CreateArticle(t, db, "IBU-1", "Ibuprofène", "3.00")

	found, err := svc.Search(ctx, "para")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Len(t, found[0].Lots, 1)

	found, err = svc.Search(ctx, "ibu-")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	byCode, err := svc.GetByCode(ctx, "PARA-1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, byCode.ID)

	_, err = svc.GetByCode(ctx, "NOPE")
	assert.True(t, apperror.IsNotFound(err))
}

func TestArticleService_ListBySociete(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewArticleService(db)
	ctx := context.Background()

	s1 := testutil.CreateSociete(t, db, "S1")
	s2 := testutil.CreateSociete(t, db, "S2")
	a := testutil.CreateArticle(t, db, "A1", "Aspirine", "4.00")
	b := testutil.CreateArticle(t, db, "B1", "Biafine", "6.00")
	testutil.CreateArticle(t, db, "C1", "Citrate", "1.00")
	la := testutil.CreateLot(t, db, a.ID, "LA", 10, "4.00", nil)
	lb := testutil.CreateLot(t, db, b.ID, "LB", 10, "6.00", nil)
	testutil.CreateStock(t, db, s1.ID, a, la, 3)
	testutil.CreateStock(t, db, s2.ID, b, lb, 3)

	articles, err := svc.ListBySociete(ctx, s1.ID)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "A1", articles[0].Code)
}

func TestArticleService_DeleteWithLots(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewArticleService(db)
	ctx := context.Background()

	a := testutil.CreateArticle(t, db, "A1", "Aspirine", "4.00")
	testutil.CreateLot(t, db, a.ID, "L1", 1, "4.00", nil)
	b := testutil.CreateArticle(t, db, "B1", "Biafine", "6.00")

	_, err := svc.Delete(ctx, a.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeInUse))

	_, err = svc.Delete(ctx, b.ID)
	require.NoError(t, err)

	_, err = svc.Delete(ctx, b.ID)
	assert.True(t, apperror.IsNotFound(err))
}
