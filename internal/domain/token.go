package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type RefreshToken struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	TokenHash  string     `json:"-"`
	DeviceID   string     `json:"device_id"`
	DeviceInfo string     `json:"device_info,omitempty"`
	IssuedAt   time.Time  `json:"issued_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// Live reports whether the token is unrevoked and unexpired at now.
func (t *RefreshToken) Live(now time.Time) bool {
	return t.RevokedAt == nil && t.ExpiresAt.After(now)
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *RefreshToken) error

	// Rotate atomically revokes the live token matching (tokenHash, deviceID)
	// and inserts replacement in the same transaction. It returns the
	// revoked token's user id. When no live row matches - unknown hash,
	// expired, already revoked, or bound to another device - it returns
	// ErrTokenNotFound and nothing is written.
	Rotate(ctx context.Context, tokenHash, deviceID string, replacement *RefreshToken) (uuid.UUID, error)

	// RevokeForDevice revokes all live tokens for one (user, device) pair.
	RevokeForDevice(ctx context.Context, userID uuid.UUID, deviceID string) error

	// RevokeAll revokes all live tokens for the user across devices.
	RevokeAll(ctx context.Context, userID uuid.UUID) error

	// DeleteExpired removes rows whose expiry or revocation is older than
	// the retention cutoff.
	DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error)
}
