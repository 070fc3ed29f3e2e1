package service

import (
	"strings"
	"testing"
	"time"

	"growvest/config"
	"growvest/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			AccessSecret:  "test-access-secret",
			RefreshSecret: "test-refresh-secret",
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 7 * 24 * time.Hour,
			Issuer:        "growvest-test",
		},
		Referral: config.ReferralConfig{
			MaxDepth: 5,
			Rates:    []string{"10", "5", "3", "2", "1"},
		},
	}
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAuthService(testConfig(), env.userRepo)

	u, access, refresh, err := svc.Register("Alice", "alice@example.com", "secret123", "")
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)
	assert.Len(t, u.ReferralCode, 8)
	assert.NotEqual(t, "secret123", u.PasswordHash, "password must be hashed")

	claims, err := auth.ParseAccessToken(&testConfig().JWT, access)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	t.Run("duplicate email refused", func(t *testing.T) {
		_, _, _, err := svc.Register("Alice 2", "alice@example.com", "other", "")
		assert.ErrorIs(t, err, ErrEmailExists)
	})

	t.Run("login round trip", func(t *testing.T) {
		got, access, _, err := svc.Login("alice@example.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.NotEmpty(t, access)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, _, err := svc.Login("alice@example.com", "nope")
		assert.ErrorIs(t, err, ErrInvalidCreds)
	})

	t.Run("suspended account", func(t *testing.T) {
		require.NoError(t, env.userRepo.SetActive(u.ID, false))
		_, _, _, err := svc.Login("alice@example.com", "secret123")
		assert.ErrorIs(t, err, ErrAccountSuspended)
	})
}

func TestRegisterWithReferralCode(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAuthService(testConfig(), env.userRepo)

	root, _, _, err := svc.Register("Root", "root@example.com", "pw123456", "")
	require.NoError(t, err)
	mid, _, _, err := svc.Register("Mid", "mid@example.com", "pw123456", root.ReferralCode)
	require.NoError(t, err)
	leaf, _, _, err := svc.Register("Leaf", "leaf@example.com", "pw123456", mid.ReferralCode)
	require.NoError(t, err)

	require.NotNil(t, leaf.ReferredByID)
	assert.Equal(t, mid.ID, *leaf.ReferredByID)

	// direct count on the direct referrer, team size up the chain
	gotMid, err := env.userRepo.GetByID(mid.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, gotMid.DirectReferrals)
	assert.Equal(t, 1, gotMid.TeamSize)

	gotRoot, err := env.userRepo.GetByID(root.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, gotRoot.DirectReferrals)
	assert.Equal(t, 2, gotRoot.TeamSize)

	t.Run("unknown code refused", func(t *testing.T) {
		_, _, _, err := svc.Register("X", "x@example.com", "pw123456", "NOSUCH99")
		assert.ErrorIs(t, err, ErrBadReferralCode)
	})

	t.Run("code matching is case-insensitive", func(t *testing.T) {
		u, _, _, err := svc.Register("Y", "y@example.com", "pw123456", strings.ToLower(root.ReferralCode))
		require.NoError(t, err)
		require.NotNil(t, u.ReferredByID)
		assert.Equal(t, root.ID, *u.ReferredByID)
	})
}

func TestLoginWithGoogle(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAuthService(testConfig(), env.userRepo)

	u, _, _, isNew, err := svc.LoginWithGoogle("gid-123", "g@example.com", "G User", "")
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.NotEmpty(t, u.ReferralCode)

	t.Run("second login reuses the account", func(t *testing.T) {
		again, _, _, isNew, err := svc.LoginWithGoogle("gid-123", "g@example.com", "G User", "")
		require.NoError(t, err)
		assert.False(t, isNew)
		assert.Equal(t, u.ID, again.ID)
	})

	t.Run("links to an existing email account", func(t *testing.T) {
		reg, _, _, err := svc.Register("Mail First", "mail@example.com", "pw123456", "")
		require.NoError(t, err)
		linked, _, _, isNew, err := svc.LoginWithGoogle("gid-456", "mail@example.com", "", "")
		require.NoError(t, err)
		assert.False(t, isNew)
		assert.Equal(t, reg.ID, linked.ID)
	})
}

func TestRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	cfg := testConfig()
	svc := NewAuthService(cfg, env.userRepo)

	u, _, refresh, err := svc.Register("R", "r@example.com", "pw123456", "")
	require.NoError(t, err)

	access, _, err := svc.RefreshToken(refresh)
	require.NoError(t, err)
	claims, err := auth.ParseAccessToken(&cfg.JWT, access)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	t.Run("garbage token", func(t *testing.T) {
		_, _, err := svc.RefreshToken("not-a-token")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("suspended user cannot refresh", func(t *testing.T) {
		require.NoError(t, env.userRepo.SetActive(u.ID, false))
		_, _, err := svc.RefreshToken(refresh)
		assert.ErrorIs(t, err, ErrAccountSuspended)
	})
}
