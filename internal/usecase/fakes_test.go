package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/caten-app/backend/internal/domain"
	"github.com/caten-app/backend/internal/googleauth"
)

// In-memory doubles implementing the repository contracts, including the
// atomicity the real store provides per row.

type fakeVerifier struct {
	identity *googleauth.Identity
	err      error
}

func (v *fakeVerifier) Verify(ctx context.Context, rawToken string) (*googleauth.Identity, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.identity, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *fakeUserRepo) Upsert(ctx context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, u := range r.users {
		if u.GoogleSub == user.GoogleSub {
			u.Email = user.Email
			u.Name = user.Name
			u.PictureURL = user.PictureURL
			u.LastLoginAt = &now
			u.IsActive = true
			cp := *u
			return &cp, nil
		}
	}

	created := &domain.User{
		ID:          uuid.New(),
		GoogleSub:   user.GoogleSub,
		Email:       user.Email,
		Name:        user.Name,
		PictureURL:  user.PictureURL,
		CreatedAt:   now,
		LastLoginAt: &now,
		IsActive:    true,
	}
	r.users[created.ID] = created
	cp := *created
	return &cp, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByGoogleSub(ctx context.Context, sub string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.GoogleSub == sub {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.IsActive = false
	}
	return nil
}

func (r *fakeUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.RefreshToken // keyed by hash
	err    error
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*domain.RefreshToken)}
}

func (r *fakeTokenRepo) Create(ctx context.Context, token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	if token.IssuedAt.IsZero() {
		token.IssuedAt = time.Now()
	}
	cp := *token
	r.tokens[token.TokenHash] = &cp
	return nil
}

func (r *fakeTokenRepo) Rotate(ctx context.Context, tokenHash, deviceID string, replacement *domain.RefreshToken) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return uuid.Nil, r.err
	}

	old, ok := r.tokens[tokenHash]
	if !ok || old.DeviceID != deviceID || !old.Live(time.Now()) {
		return uuid.Nil, domain.ErrTokenNotFound
	}

	now := time.Now()
	old.RevokedAt = &now
	old.LastUsedAt = &now

	replacement.ID = uuid.New()
	replacement.UserID = old.UserID
	replacement.DeviceID = deviceID
	replacement.IssuedAt = now
	cp := *replacement
	r.tokens[replacement.TokenHash] = &cp
	return old.UserID, nil
}

func (r *fakeTokenRepo) RevokeForDevice(ctx context.Context, userID uuid.UUID, deviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, t := range r.tokens {
		if t.UserID == userID && t.DeviceID == deviceID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (r *fakeTokenRepo) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (r *fakeTokenRepo) DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for hash, t := range r.tokens {
		if t.ExpiresAt.Before(olderThan) || (t.RevokedAt != nil && t.RevokedAt.Before(olderThan)) {
			delete(r.tokens, hash)
			n++
		}
	}
	return n, nil
}

func (r *fakeTokenRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

func (r *fakeTokenRepo) liveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.tokens {
		if t.Live(time.Now()) {
			n++
		}
	}
	return n
}

type fakeDeviceRepo struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newFakeDeviceRepo() *fakeDeviceRepo {
	return &fakeDeviceRepo{counts: make(map[string]int64)}
}

func (r *fakeDeviceRepo) Increment(ctx context.Context, deviceID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	r.counts[deviceID]++
	return r.counts[deviceID], nil
}

func (r *fakeDeviceRepo) Get(ctx context.Context, deviceID string) (*domain.DeviceCounter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count, ok := r.counts[deviceID]
	if !ok {
		return nil, nil
	}
	return &domain.DeviceCounter{DeviceID: deviceID, RequestCount: count}, nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []*domain.LoginEvent
	err    error
}

func (r *fakeEventRepo) Create(ctx context.Context, event *domain.LoginEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	cp := *event
	r.events = append(r.events, &cp)
	return nil
}

func (r *fakeEventRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.LoginEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.LoginEvent
	for _, e := range r.events {
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

var errVerifierDown = errors.New("verifier unavailable")
