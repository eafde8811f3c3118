// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Platewise Contributors

// Package session issues and verifies signed, self-contained session claims.
//
// Claims carry the account ID and role fixed at issuance; verification is a
// local signature and expiry check with no store round trip. A role change
// therefore takes effect only when a new token is issued.
package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"

	"github.com/platewise/platewise/internal/auth"
)

// TokenTTL is the session lifetime.
const TokenTTL = 30 * 24 * time.Hour

// Claims is the signed session payload.
type Claims struct {
	Role auth.Role `json:"role"`
	jwt.RegisteredClaims
}

// Subject returns the account ID the claims were issued for.
func (c *Claims) Subject() string {
	return c.RegisteredClaims.Subject
}

// Issuer mints and verifies session tokens with a server-held secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer creates an Issuer. The secret must be non-empty.
func NewIssuer(secret string) (*Issuer, error) {
	if secret == "" {
		return nil, oops.Code("SESSION_SECRET_EMPTY").Errorf("session secret cannot be empty")
	}
	return &Issuer{secret: []byte(secret), ttl: TokenTTL}, nil
}

// Issue signs a token for the identity, expiring TokenTTL from now.
func (i *Issuer) Issue(identity *auth.Identity) (string, error) {
	if identity == nil {
		return "", oops.Code("SESSION_ISSUE_FAILED").Errorf("identity cannot be nil")
	}

	now := time.Now().UTC()
	claims := Claims{
		Role: identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", oops.Code("SESSION_ISSUE_FAILED").
			With("operation", "sign token").
			Wrap(err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the claims. Failures are
// discriminable by code - SESSION_TOKEN_ABSENT, SESSION_TOKEN_EXPIRED, or
// SESSION_TOKEN_MALFORMED - though callers gating access treat all three as
// unauthenticated.
func (i *Issuer) Verify(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, oops.Code("SESSION_TOKEN_ABSENT").Errorf("no session token")
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, oops.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, oops.Code("SESSION_TOKEN_EXPIRED").Wrap(err)
		}
		return nil, oops.Code("SESSION_TOKEN_MALFORMED").Wrap(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, oops.Code("SESSION_TOKEN_MALFORMED").Errorf("invalid session token")
	}
	if !claims.Role.Valid() {
		return nil, oops.Code("SESSION_TOKEN_MALFORMED").
			Errorf("unknown role in session claims")
	}
	return claims, nil
}
