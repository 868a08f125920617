// Package auth decodes and validates the bearer tokens that gate the
// admin dashboard. Tokens are issued elsewhere; this package only checks
// signature, expiry and role claims.
package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in token claims.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

var (
	// ErrExpired means the token was well-formed but its exp is in the past.
	ErrExpired = errors.New("auth: token expired")

	// ErrInvalid covers malformed tokens and bad signatures.
	ErrInvalid = errors.New("auth: invalid token")

	// ErrNoSecret means token verification is not configured.
	ErrNoSecret = errors.New("auth: no signing secret configured")
)

// User is the identity decoded from a token.
type User struct {
	Sub        string
	BusinessID string
	Role       string
	StaffID    string
}

// Claims is the JWT payload shape used by the agenda service.
type Claims struct {
	BusinessID string `json:"businessId"`
	Role       string `json:"role"`
	StaffID    string `json:"staffId,omitempty"`
	jwt.RegisteredClaims
}

// Parse verifies an HMAC-signed token and returns the decoded user.
// Expiry is always enforced.
func Parse(secret, tokenString string) (*User, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrNoSecret
	}
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrInvalid
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	if !token.Valid {
		return nil, ErrInvalid
	}

	return &User{
		Sub:        claims.Subject,
		BusinessID: claims.BusinessID,
		Role:       claims.Role,
		StaffID:    claims.StaffID,
	}, nil
}

// HasRole reports whether the user satisfies a required role. An empty
// requirement accepts any authenticated user.
func (u *User) HasRole(required string) bool {
	if required == "" {
		return true
	}
	return u != nil && u.Role == required
}
