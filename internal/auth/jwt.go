package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrMissingUserID = errors.New("token carries no user id")

// Claims identifies the calling user. Tokens issued by older clients carry
// the id in an "id" claim instead of "sub"; both are accepted.
type Claims struct {
	LegacyID string `json:"id,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject, falling back to the legacy id claim.
func (c *Claims) UserID() (uuid.UUID, error) {
	raw := c.Subject
	if raw == "" {
		raw = c.LegacyID
	}
	if raw == "" {
		return uuid.Nil, ErrMissingUserID
	}
	return uuid.Parse(raw)
}

// Issue creates an HS256 token for userID.
func Issue(secret []byte, userID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   userID.String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Parse validates token and returns its claims. Only HS256 is accepted.
func Parse(secret []byte, token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
