// Package auth implements the session token service: HS256-signed JWTs
// carrying the customer's email claim.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: bad signature,
// malformed token, expiry. Callers get no finer-grained cause; the guard
// surfaces all of them as the same unauthorized outcome.
var ErrInvalidToken = errors.New("auth: invalid token")

// ErrEmptyClaim is returned when Issue is called without an identity.
var ErrEmptyClaim = errors.New("auth: empty identity claim")

// Claims holds the typed JWT payload.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies session tokens against a single shared
// secret. It is read-only after construction and safe for concurrent use.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService builds a TokenService. ttl <= 0 falls back to one hour.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the given identity claim. The claim is not checked
// against the user store; identity binding happens at verification time
// through the guard's role stage.
func (s *TokenService) Issue(email string) (string, error) {
	if email == "" {
		return "", ErrEmptyClaim
	}

	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses the token and returns the embedded identity claim.
// Any failure collapses into ErrInvalidToken.
func (s *TokenService) Verify(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(tok *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Email == "" {
		return "", ErrInvalidToken
	}
	return claims.Email, nil
}
