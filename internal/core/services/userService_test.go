package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_UpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "u@webike.test", domain.Customer)

	updated, err := f.users.UpdateProfile(ctx, u.ID.String(), domain.ProfileUpdate{City: "Chennai"})
	require.NoError(t, err)
	assert.Equal(t, "Chennai", updated.City)
	assert.Equal(t, u.FirstName, updated.FirstName)
	assert.Equal(t, u.Address, updated.Address)
}

func TestUserService_ChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.auth.Register(ctx, registration("asha@webike.test"))
	require.NoError(t, err)
	id := res.User.ID.String()

	err = f.users.ChangePassword(ctx, id, "wrong", "newsecret")
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	err = f.users.ChangePassword(ctx, id, "secret123", "short")
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, f.users.ChangePassword(ctx, id, "secret123", "newsecret"))

	_, err = f.auth.Login(ctx, "asha@webike.test", "secret123")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.auth.Login(ctx, "asha@webike.test", "newsecret")
	assert.NoError(t, err)
}

func TestUserService_UploadProfileImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "u@webike.test", domain.Customer)
	img := append([]byte("\x89PNG\r\n\x1a\n"), "fake image bytes"...)

	updated, err := f.users.UploadProfileImage(ctx, u.ID.String(), bytes.NewReader(img), int64(len(img)), "image/png")
	require.NoError(t, err)
	require.NotNil(t, updated.ProfileImage)
	assert.Equal(t, "http://files.test/profile-pictures/"+u.ID.String()+".png", *updated.ProfileImage)

	stored, ok := f.storage.Object("profile-pictures/" + u.ID.String() + ".png")
	require.True(t, ok)
	assert.Equal(t, img, stored)

	_, err = f.users.UploadProfileImage(ctx, u.ID.String(), bytes.NewReader(img), int64(len(img)), "application/pdf")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.users.UploadProfileImage(ctx, u.ID.String(), bytes.NewReader(nil), 6<<20, "image/png")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUserService_UploadProfileImageChecksContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "u@webike.test", domain.Customer)

	tests := []struct {
		name        string
		body        []byte
		contentType string
	}{
		{"html labelled as png", []byte("<html><script>alert(1)</script></html>"), "image/png"},
		{"gif labelled as png", []byte("GIF89a fake gif"), "image/png"},
		{"empty body", nil, "image/jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size := int64(len(tt.body))
			if size == 0 {
				size = 1
			}
			_, err := f.users.UploadProfileImage(ctx, u.ID.String(), bytes.NewReader(tt.body), size, tt.contentType)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	_, ok := f.storage.Object("profile-pictures/" + u.ID.String() + ".png")
	assert.False(t, ok)

	stored, err := f.users.GetProfile(ctx, u.ID.String())
	require.NoError(t, err)
	assert.Nil(t, stored.ProfileImage)
}

func TestUserService_SetRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "u@webike.test", domain.Customer)

	updated, err := f.users.SetRole(ctx, u.ID.String(), domain.Admin)
	require.NoError(t, err)
	assert.Equal(t, domain.Admin, updated.Role)

	_, err = f.users.SetRole(ctx, u.ID.String(), "superuser")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.users.GetProfile(ctx, "bad-id")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}
