// Package jwtauth mints and validates the HS256 bearer tokens used by the
// citizen-facing endpoints. Token issuance normally happens in the identity
// gateway fronting this service; Mint exists for local development and tests.
package jwtauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"hati/internal/platform/middleware"
)

// Validator validates HS256 tokens and implements middleware.JWTValidator.
type Validator struct {
	signingKey []byte
}

// New creates a Validator with the shared signing key.
func New(signingKey string) *Validator {
	return &Validator{signingKey: []byte(signingKey)}
}

type claims struct {
	jwt.RegisteredClaims
}

// ValidateToken parses and verifies a token, returning the subject as user ID.
func (v *Validator) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if c.Subject == "" {
		return nil, errors.New("token missing subject")
	}
	return &middleware.JWTClaims{UserID: c.Subject}, nil
}

// Mint issues a token for the given user. Development and test helper.
func (v *Validator) Mint(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(v.signingKey)
}
