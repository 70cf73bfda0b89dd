package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID          uuid.UUID  `json:"id"`
	GoogleSub   string     `json:"-"`
	Email       string     `json:"email"`
	Name        string     `json:"name,omitempty"`
	PictureURL  string     `json:"picture_url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	IsActive    bool       `json:"is_active"`
}

type UserRepository interface {
	// Upsert creates the user keyed by GoogleSub, or updates
	// email/name/picture/last-login on an existing row. The stored row is
	// returned either way.
	Upsert(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByGoogleSub(ctx context.Context, sub string) (*User, error)
	// Deactivate clears the active flag. Users are never hard-deleted.
	Deactivate(ctx context.Context, id uuid.UUID) error
}
