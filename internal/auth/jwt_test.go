package auth

import (
	"testing"
	"time"

	"growvest/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessExpiry:  time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "growvest-test",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	token, err := GenerateAccessToken(cfg, 42, "user@example.com", "USER")
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "USER", claims.Role)
	assert.Equal(t, cfg.Issuer, claims.Issuer)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	token, err := GenerateRefreshToken(cfg, 7)
	require.NoError(t, err)

	userID, err := ParseRefreshToken(cfg, token)
	require.NoError(t, err)
	assert.EqualValues(t, 7, userID)
}

func TestParseRejectsBadTokens(t *testing.T) {
	cfg := testJWTConfig()

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseAccessToken(cfg, "not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := testJWTConfig()
		other.AccessSecret = "different"
		token, err := GenerateAccessToken(other, 1, "a@b.c", "USER")
		require.NoError(t, err)
		_, err = ParseAccessToken(cfg, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		short := testJWTConfig()
		short.AccessExpiry = -time.Minute
		token, err := GenerateAccessToken(short, 1, "a@b.c", "USER")
		require.NoError(t, err)
		_, err = ParseAccessToken(cfg, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		token, err := GenerateRefreshToken(cfg, 1)
		require.NoError(t, err)
		_, err = ParseAccessToken(cfg, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		token, err := GenerateAccessToken(cfg, 1, "a@b.c", "USER")
		require.NoError(t, err)
		_, err = ParseRefreshToken(cfg, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
