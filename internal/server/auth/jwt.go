// Package auth implements the stateless session primitives: password
// hashing and signed bearer tokens carrying identity claims.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ymatrosov/linkstash/internal/common"
)

// Claims is the JWT payload: registered claims plus the subject's user id
// and email.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Email  string `json:"email"`
}

// Identity is the canonical authenticated-subject value attached to a
// request after token verification. Handlers receive it immutably through
// the request context; there is no other identity shape in the system.
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// GenerateToken signs an HS256 token for the given subject, expiring a
// fixed validity duration from now.
func GenerateToken(userID, email string, secretKey []byte, validity time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		UserID: userID,
		Email:  email,
	})

	return token.SignedString(secretKey)
}

// ParseToken verifies signature and expiry and returns the embedded claims.
// Expired tokens yield common.ErrTokenExpired; every other failure mode
// (bad signature, malformed string, wrong algorithm) yields
// common.ErrInvalidToken. It never panics on malformed input.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrInvalidToken
		}
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// IdentityFromClaims converts verified claims into the request identity.
func IdentityFromClaims(c *Claims) Identity {
	return Identity{UserID: c.UserID, Email: c.Email}
}
