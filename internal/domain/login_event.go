package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type LoginEvent struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	AuthMethod string    `json:"auth_method"`
	DeviceID   string    `json:"device_id"`
	IPAddress  string    `json:"ip_address,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type LoginEventRepository interface {
	Create(ctx context.Context, event *LoginEvent) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*LoginEvent, error)
}
