package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"stock-backend/internal/apperror"
	"stock-backend/internal/models"
	"stock-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = strings.Repeat("k", 32)

func TestRegisterAdmin_OnlyOnce(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db, testSecret, time.Hour)
	ctx := context.Background()

	user, err := svc.RegisterAdmin(ctx, "Admin", " Admin@Example.com ", "secret1", false)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", user.Email)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	_, err = svc.RegisterAdmin(ctx, "Other", "other@example.com", "secret1", false)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))

	// forced creation still rejects a used email
	_, err = svc.RegisterAdmin(ctx, "Dup", "admin@example.com", "secret1", true)
	assert.True(t, apperror.IsCode(err, apperror.CodeDuplicate))

	_, err = svc.RegisterAdmin(ctx, "Second", "second@example.com", "secret1", true)
	assert.NoError(t, err)
}

func TestRegisterAdmin_Validation(t *testing.T) {
	svc := NewService(testutil.NewDB(t), testSecret, time.Hour)

	_, err := svc.RegisterAdmin(context.Background(), "A", "not-an-email", "secret1", false)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = svc.RegisterAdmin(context.Background(), "A", "a@b.fr", "123", false)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestLogin(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db, testSecret, time.Hour)
	ctx := context.Background()

	_, err := svc.RegisterAdmin(ctx, "Admin", "admin@example.com", "secret1", false)
	require.NoError(t, err)

	res, err := svc.Login(ctx, "ADMIN@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	claims, err := ParseToken(testSecret, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	_, err = svc.Login(ctx, "admin@example.com", "wrong")
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))

	_, err = svc.Login(ctx, "nobody@example.com", "secret1")
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))
}

func TestUpdateProfile_EmailTaken(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db, testSecret, time.Hour)
	ctx := context.Background()

	admin, err := svc.RegisterAdmin(ctx, "Admin", "admin@example.com", "secret1", false)
	require.NoError(t, err)
	testutil.CreateUser(t, db, "taken@example.com", models.RoleVendeur, nil)

	_, err = svc.UpdateProfile(ctx, admin.ID, "Admin", "taken@example.com")
	assert.True(t, apperror.IsCode(err, apperror.CodeDuplicate))

	updated, err := svc.UpdateProfile(ctx, admin.ID, "Nouveau Nom", "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Nouveau Nom", updated.Name)
}

func TestChangePassword(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db, testSecret, time.Hour)
	ctx := context.Background()

	admin, err := svc.RegisterAdmin(ctx, "Admin", "admin@example.com", "secret1", false)
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, admin.ID, "bad", "newsecret")
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	require.NoError(t, svc.ChangePassword(ctx, admin.ID, "secret1", "newsecret"))

	_, err = svc.Login(ctx, "admin@example.com", "newsecret")
	assert.NoError(t, err)
}
