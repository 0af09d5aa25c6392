package services

import (
	"context"
	"testing"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registration(email string) domain.Registration {
	return domain.Registration{
		FirstName:   "Asha",
		LastName:    "Rao",
		Email:       email,
		Password:    "secret123",
		PhoneNumber: "+91 98765 43210",
		City:        "Mysuru",
	}
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.auth.Register(ctx, registration("  Asha@WeBike.test "))
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "asha@webike.test", res.User.Email)
	assert.Equal(t, domain.Customer, res.User.Role)

	stored, err := f.store.GetUserByEmail(ctx, "asha@webike.test")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", stored.PasswordHash)

	login, err := f.auth.Login(ctx, "ASHA@webike.test", "secret123")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)
	assert.NotEmpty(t, login.Token)
}

func TestAuthService_WrongPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, registration("asha@webike.test"))
	require.NoError(t, err)

	res, err := f.auth.Login(ctx, "asha@webike.test", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Nil(t, res)

	res, err = f.auth.Login(ctx, "nobody@webike.test", "secret123")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Nil(t, res)
}

func TestAuthService_DuplicateRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, registration("asha@webike.test"))
	require.NoError(t, err)

	_, err = f.auth.Register(ctx, registration("ASHA@webike.test"))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	f := newFixture(t)

	reg := registration("not-an-email")
	_, err := f.auth.Register(context.Background(), reg)
	assert.ErrorIs(t, err, domain.ErrValidation)

	reg = registration("asha@webike.test")
	reg.Password = "123"
	_, err = f.auth.Register(context.Background(), reg)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAuthService_Authenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.auth.Register(ctx, registration("asha@webike.test"))
	require.NoError(t, err)

	payload, user, err := f.auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, payload.UserID)
	assert.Equal(t, domain.Customer, payload.Role)
	assert.Equal(t, "asha@webike.test", user.Email)

	// Role changes apply to tokens already issued.
	_, err = f.users.SetRole(ctx, res.User.ID.String(), domain.Mechanic)
	require.NoError(t, err)
	payload, _, err = f.auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.Mechanic, payload.Role)

	_, _, err = f.auth.Authenticate(ctx, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, _, err = f.auth.Authenticate(ctx, "token-garbage")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.auth.EnsureAdmin(ctx, "admin@webike.test", "adminpass"))
	require.NoError(t, f.auth.EnsureAdmin(ctx, "admin@webike.test", "adminpass"))

	admin, err := f.store.GetUserByEmail(ctx, "admin@webike.test")
	require.NoError(t, err)
	assert.Equal(t, domain.Admin, admin.Role)

	res, err := f.auth.Login(ctx, "admin@webike.test", "adminpass")
	require.NoError(t, err)
	assert.Equal(t, domain.Admin, res.User.Role)

	assert.NoError(t, f.auth.EnsureAdmin(ctx, "", ""))
}
