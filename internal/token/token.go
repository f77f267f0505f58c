// Package token validates signed widget tokens embedded in public booking
// widget URLs. A token binds the caller to exactly one tenant slug.
package token

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is the single outcome for every validation failure: wrong
// segment count, bad header, missing slug, expired claim, bad signature. No
// partial-failure detail leaks to the caller.
var ErrInvalidToken = errors.New("invalid token")

// WidgetClaims is the payload of a widget token.
type WidgetClaims struct {
	Slug          string `json:"slug"`
	WidgetType    string `json:"widgetType,omitempty"`
	ConfigVersion int    `json:"configVersion,omitempty"`
	jwt.RegisteredClaims
}

// Validator verifies compact HS256 widget tokens against a shared secret.
type Validator struct {
	secret []byte
}

func NewValidator(secret string) *Validator {
	return &Validator{secret: []byte(secret)}
}

// Validate checks the token and returns its claims. The expiry claim is
// honored when present; tokens without one do not expire. Signing is always
// HMAC-SHA256; no other algorithm is accepted.
func (v *Validator) Validate(raw string) (*WidgetClaims, error) {
	if strings.Count(raw, ".") != 2 {
		return nil, ErrInvalidToken
	}

	claims := &WidgetClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Slug == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
