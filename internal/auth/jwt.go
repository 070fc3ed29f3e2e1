// Package auth issues and verifies the access/refresh token pair. Access
// tokens carry identity claims for the middleware; refresh tokens carry
// only the user id and are signed with a separate secret.
package auth

import (
	"errors"
	"strconv"
	"time"

	"growvest/config"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: bad signature,
// wrong algorithm, expiry, malformed input. Callers never learn which.
var ErrInvalidToken = errors.New("invalid token")

// hs256Only pins the accepted signing algorithm. Tokens presenting any
// other method (including "none") fail verification outright.
var hs256Only = jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func registeredClaims(cfg *config.JWTConfig, subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    cfg.Issuer,
	}
}

// GenerateAccessToken signs a short-lived token with the user's identity.
func GenerateAccessToken(cfg *config.JWTConfig, userID uint, email, role string) (string, error) {
	claims := AccessClaims{
		UserID:           userID,
		Email:            email,
		Role:             role,
		RegisteredClaims: registeredClaims(cfg, strconv.FormatUint(uint64(userID), 10), cfg.AccessExpiry),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.AccessSecret))
}

// GenerateRefreshToken signs a long-lived token holding only the user id.
func GenerateRefreshToken(cfg *config.JWTConfig, userID uint) (string, error) {
	claims := registeredClaims(cfg, strconv.FormatUint(uint64(userID), 10), cfg.RefreshExpiry)
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.RefreshSecret))
}

// ParseAccessToken verifies an access token and returns its claims.
func ParseAccessToken(cfg *config.JWTConfig, tokenString string) (*AccessClaims, error) {
	var claims AccessClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(cfg.AccessSecret), nil
	}, hs256Only)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// ParseRefreshToken verifies a refresh token and returns the user id it
// was issued for.
func ParseRefreshToken(cfg *config.JWTConfig, tokenString string) (uint, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(cfg.RefreshSecret), nil
	}, hs256Only)
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return uint(userID), nil
}
