// Package token implements the self-contained access credential and the
// opaque refresh secret. Access tokens are signed JWTs verified without any
// store lookup; refresh secrets are random values persisted only as digests.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrExpired marks a structurally valid token past its lifetime. Clients
	// should refresh rather than re-login.
	ErrExpired = errors.New("access token expired")
	// ErrMalformed marks a token that was never valid: unparsable, unsigned,
	// or signed with the wrong key.
	ErrMalformed = errors.New("access token malformed")
)

// Claims carried by an access token. Validity is purely computational; no
// server-side state is consulted on verification.
type Claims struct {
	UserID   uuid.UUID `json:"user_id"`
	Email    string    `json:"email"`
	DeviceID string    `json:"device_id"`
	jwt.RegisteredClaims
}

// Codec issues and verifies signed access tokens with a fixed lifetime.
type Codec struct {
	secret   []byte
	lifetime time.Duration
	leeway   time.Duration
	now      func() time.Time
}

func NewCodec(secret string, lifetime, leeway time.Duration) *Codec {
	return &Codec{
		secret:   []byte(secret),
		lifetime: lifetime,
		leeway:   leeway,
		now:      time.Now,
	}
}

// Lifetime returns the configured access token lifetime.
func (c *Codec) Lifetime() time.Duration {
	return c.lifetime
}

// Issue produces a signed HS256 token for the given identity bound to
// deviceID.
func (c *Codec) Issue(userID uuid.UUID, email, deviceID string) (string, error) {
	now := c.now()
	claims := &Claims{
		UserID:   userID,
		Email:    email,
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.lifetime)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify checks signature and expiry. Expiry is evaluated with the configured
// leeway to tolerate clock skew across instances. The error is ErrExpired for
// a token that was valid once, ErrMalformed for one that never was.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrMalformed
		}
		return c.secret, nil
	}, jwt.WithLeeway(c.leeway), jwt.WithTimeFunc(func() time.Time { return c.now() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrMalformed
	}
	if !tok.Valid {
		return nil, ErrMalformed
	}
	return claims, nil
}
