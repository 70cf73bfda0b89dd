package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/caten-app/backend/internal/domain"
)

type RefreshTokenRepository struct {
	db DB
}

func NewRefreshTokenRepository(db DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// execer is satisfied by both DB and pgx.Tx, so inserts can run standalone
// or inside the rotation transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const insertTokenQuery = `
	INSERT INTO refresh_tokens (id, user_id, token_hash, device_id, device_info, issued_at, expires_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

func insertToken(ctx context.Context, db execer, token *domain.RefreshToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	if token.IssuedAt.IsZero() {
		token.IssuedAt = time.Now()
	}

	_, err := db.Exec(ctx, insertTokenQuery,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.DeviceID,
		token.DeviceInfo,
		token.IssuedAt,
		token.ExpiresAt,
	)
	return err
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return insertToken(ctx, r.db, token)
}

// Rotate revokes the live row matching (tokenHash, deviceID) and inserts the
// replacement in one transaction. The revoke is a single check-and-update:
// of any number of concurrent rotations of the same secret, exactly one sees
// the live row and wins; the rest get domain.ErrTokenNotFound.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, tokenHash, deviceID string, replacement *domain.RefreshToken) (uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var userID uuid.UUID
	err := WithTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		query := `
			UPDATE refresh_tokens
			SET revoked_at = NOW(), last_used_at = NOW()
			WHERE token_hash = $1 AND device_id = $2 AND revoked_at IS NULL AND expires_at > NOW()
			RETURNING user_id
		`
		err := tx.QueryRow(ctx, query, tokenHash, deviceID).Scan(&userID)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTokenNotFound
		}
		if err != nil {
			return err
		}

		replacement.UserID = userID
		replacement.DeviceID = deviceID
		return insertToken(ctx, tx, replacement)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return userID, nil
}

func (r *RefreshTokenRepository) RevokeForDevice(ctx context.Context, userID uuid.UUID, deviceID string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		UPDATE refresh_tokens SET revoked_at = NOW()
		WHERE user_id = $1 AND device_id = $2 AND revoked_at IS NULL
	`
	_, err := r.db.Exec(ctx, query, userID, deviceID)
	return err
}

func (r *RefreshTokenRepository) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		UPDATE refresh_tokens SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL
	`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `DELETE FROM refresh_tokens WHERE expires_at < $1 OR revoked_at < $1`
	tag, err := r.db.Exec(ctx, query, olderThan)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
