// Package auth turns bearer tokens issued by the identity provider into request principals.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/monstter/backoffice/internal/shared"
)

// Claims carried by identity provider tokens.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 tokens.
type Verifier struct {
	secret []byte
	leeway time.Duration
}

// NewVerifier constructs a verifier for the shared secret.
func NewVerifier(secret string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: JWT secret required")
	}
	return &Verifier{secret: []byte(secret), leeway: 30 * time.Second}, nil
}

// Verify parses raw and returns the principal it describes.
func (v *Verifier) Verify(raw string) (*shared.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(v.leeway), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", shared.ErrUnauthorized, err)
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("%w: invalid subject", shared.ErrUnauthorized)
	}
	return &shared.Principal{
		UserID: userID,
		Email:  claims.Email,
		Role:   shared.ParseRole(claims.Role),
	}, nil
}

// Issue signs a token for p. The identity provider owns issuance in production; this serves
// local tooling and tests.
func (v *Verifier) Issue(p shared.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: p.Email,
		Role:  string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
