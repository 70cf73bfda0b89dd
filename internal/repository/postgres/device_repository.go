package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/caten-app/backend/internal/domain"
)

type DeviceCounterRepository struct {
	db DB
}

func NewDeviceCounterRepository(db DB) *DeviceCounterRepository {
	return &DeviceCounterRepository{db: db}
}

// Increment bumps the lifetime counter for deviceID and returns the
// post-increment value. The upsert-and-return is one statement, so two
// simultaneous requests from one device can never read the same
// pre-increment value.
func (r *DeviceCounterRepository) Increment(ctx context.Context, deviceID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO unauth_device_requests (device_id, request_count, first_seen, last_request_at)
		VALUES ($1, 1, NOW(), NOW())
		ON CONFLICT (device_id) DO UPDATE SET
			request_count = unauth_device_requests.request_count + 1,
			last_request_at = NOW()
		RETURNING request_count
	`

	var count int64
	if err := r.db.QueryRow(ctx, query, deviceID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *DeviceCounterRepository) Get(ctx context.Context, deviceID string) (*domain.DeviceCounter, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT device_id, request_count, first_seen, last_request_at
		FROM unauth_device_requests WHERE device_id = $1
	`

	counter := &domain.DeviceCounter{}
	err := r.db.QueryRow(ctx, query, deviceID).Scan(
		&counter.DeviceID,
		&counter.RequestCount,
		&counter.FirstSeen,
		&counter.LastRequestAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return counter, nil
}
