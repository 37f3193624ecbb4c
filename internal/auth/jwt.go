// Package auth isolates the security-sensitive primitives the rest of the
// application depends on: bearer-token issuance/verification and password
// hashing. It is injected into services and middleware rather than reached
// globally.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload embedded in an access token. Carrying the user id
// inside the token lets the auth middleware resolve the caller without a
// database lookup on every request.
type Claims struct {
	jwt.RegisteredClaims

	UserID string `json:"user_id"`
}

// ErrInvalidToken covers every verification failure: bad signature, wrong
// algorithm, malformed payload, or expiry in the past. Handlers map it to
// a single 401 without leaking the specific cause.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenService issues and verifies HS256 tokens under a shared secret.
// Tokens are stateless: validity is established purely by signature and
// expiry, never by server-side lookup.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService builds a TokenService. The secret must be non-empty;
// ttl values <= 0 default to one hour.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("auth: signing secret is required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// Issue creates a signed token binding userID to an absolute expiry
// instant ttl from now.
func (s *TokenService) Issue(userID string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID: userID,
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm, and expiry, and returns the claims.
// Any failure collapses into ErrInvalidToken.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// TTL reports the configured token lifetime.
func (s *TokenService) TTL() time.Duration { return s.ttl }
