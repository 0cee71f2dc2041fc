package admin

import (
	"context"
	"testing"

	"stock-backend/internal/apperror"
	"stock-backend/internal/auth"
	"stock-backend/internal/models"
	"stock-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVendeurService_Create(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewVendeurService(db)
	ctx := context.Background()
	societe := testutil.CreateSociete(t, db, "Boutique")

	user, err := svc.Create(ctx, CreateVendeurInput{
		Name:      "Awa",
		Email:     "Awa@Example.com",
		Password:  "secret1",
		SocieteID: &societe.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleVendeur, user.Role)
	assert.Equal(t, "awa@example.com", user.Email)
	assert.True(t, auth.CheckPassword(user.PasswordHash, "secret1"))

	_, err = svc.Create(ctx, CreateVendeurInput{Name: "Bis", Email: "awa@example.com", Password: "secret1"})
	assert.True(t, apperror.IsCode(err, apperror.CodeDuplicate))

	missing := uint(404)
	_, err = svc.Create(ctx, CreateVendeurInput{Name: "C", Email: "c@example.com", Password: "secret1", SocieteID: &missing})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestVendeurService_UpdateKeepsPasswordWhenEmpty(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewVendeurService(db)
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateVendeurInput{Name: "Awa", Email: "awa@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, after, err := svc.Update(ctx, user.ID, UpdateVendeurInput{Name: "Awa D.", Email: "awa@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Awa D.", after.Name)
	assert.True(t, auth.CheckPassword(after.PasswordHash, "secret1"))

	_, after, err = svc.Update(ctx, user.ID, UpdateVendeurInput{Name: "Awa D.", Email: "awa@example.com", Password: "nouveau1"})
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(after.PasswordHash, "nouveau1"))
}

func TestVendeurService_SearchAndAdminsHidden(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewVendeurService(db)
	ctx := context.Background()

	testutil.CreateUser(t, db, "boss@example.com", models.RoleAdmin, nil)
	_, err := svc.Create(ctx, CreateVendeurInput{Name: "Marie Curie", Email: "marie@example.com", Password: "secret1"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateVendeurInput{Name: "Paul", Email: "paul@example.com", Password: "secret1"})
	require.NoError(t, err)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := svc.Search(ctx, "MARIE")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Marie Curie", found[0].Name)

	found, err = svc.Search(ctx, "boss")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestVendeurService_Delete(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewVendeurService(db)
	ctx := context.Background()

	admin := testutil.CreateUser(t, db, "boss@example.com", models.RoleAdmin, nil)
	_, err := svc.Delete(ctx, admin.ID)
	assert.True(t, apperror.IsNotFound(err))

	user, err := svc.Create(ctx, CreateVendeurInput{Name: "Paul", Email: "paul@example.com", Password: "secret1"})
	require.NoError(t, err)
	_, err = svc.Delete(ctx, user.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, user.ID)
	assert.True(t, apperror.IsNotFound(err))
}
