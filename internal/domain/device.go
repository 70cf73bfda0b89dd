package domain

import (
	"context"
	"time"
)

// DeviceCounter tracks lifetime unauthenticated request usage per device.
type DeviceCounter struct {
	DeviceID      string    `json:"device_id"`
	RequestCount  int64     `json:"request_count"`
	FirstSeen     time.Time `json:"first_seen"`
	LastRequestAt time.Time `json:"last_request_at"`
}

type DeviceCounterRepository interface {
	// Increment atomically bumps the counter for deviceID, creating the row
	// with count 1 when absent, and returns the post-increment count.
	// Concurrent calls for one device must each observe a distinct count.
	Increment(ctx context.Context, deviceID string) (int64, error)
	Get(ctx context.Context, deviceID string) (*DeviceCounter, error)
}
