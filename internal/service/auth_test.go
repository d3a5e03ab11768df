package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/pkg/tokens"
)

var testSecret = []byte("test-secret")

func TestAuth_RegisterAndLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewAuthService(newRepo(t), testSecret, nil)

	reg, err := svc.Register(ctx, "ada", "analytical")
	require.NoError(t, err)
	assert.Equal(t, tokens.RoleUser, reg.User.Role)

	claims, err := tokens.AccessClaimsFromToken(reg.AccessToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID.String(), claims.Subject)

	_, err = svc.Register(ctx, "ada", "another-one")
	assert.ErrorIs(t, err, ErrConflict)

	login, err := svc.Login(ctx, "ada", "analytical")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)

	_, err = svc.Login(ctx, "ada", "wrong-password")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Login(ctx, "nobody", "analytical")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuth_RegisterValidation(t *testing.T) {
	t.Parallel()
	svc := NewAuthService(newRepo(t), testSecret, nil)

	_, err := svc.Register(context.Background(), " ", "analytical")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Register(context.Background(), "ada", "short")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuth_EnsureAdminIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newRepo(t)
	svc := NewAuthService(r, testSecret, nil)

	require.NoError(t, svc.EnsureAdmin(ctx, "root", "s3cret-pass"))
	require.NoError(t, svc.EnsureAdmin(ctx, "root", "s3cret-pass"))

	u, err := r.GetUserByUsername(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, tokens.RoleAdmin, u.Role)

	login, err := svc.Login(ctx, "root", "s3cret-pass")
	require.NoError(t, err)
	claims, err := tokens.AccessClaimsFromToken(login.AccessToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, tokens.RoleAdmin, claims.Role)
}
