// Package usecase implements the session orchestrator: login, refresh,
// logout, and the authentication decision applied to every incoming request.
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/caten-app/backend/internal/apperr"
	"github.com/caten-app/backend/internal/domain"
	"github.com/caten-app/backend/internal/googleauth"
	"github.com/caten-app/backend/internal/token"
)

// TokenPair is the credential bundle returned by login and refresh.
type TokenPair struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	RefreshToken string       `json:"refresh_token"`
	User         *domain.User `json:"user,omitempty"`
}

// AuthContext is the outcome of the authorize gate: either a verified user
// identity or a permitted anonymous device.
type AuthContext struct {
	Authenticated bool
	UserID        uuid.UUID
	Email         string
	DeviceID      string
}

// LoginMeta carries request metadata recorded in the login audit trail.
type LoginMeta struct {
	DeviceInfo string
	IPAddress  string
	UserAgent  string
}

type AuthUsecase struct {
	userRepo   domain.UserRepository
	tokenRepo  domain.RefreshTokenRepository
	deviceRepo domain.DeviceCounterRepository
	eventRepo  domain.LoginEventRepository
	verifier   googleauth.Verifier
	codec      *token.Codec

	refreshExpiry time.Duration
	deviceLimit   int64
	log           zerolog.Logger
}

func NewAuthUsecase(
	userRepo domain.UserRepository,
	tokenRepo domain.RefreshTokenRepository,
	deviceRepo domain.DeviceCounterRepository,
	eventRepo domain.LoginEventRepository,
	verifier googleauth.Verifier,
	codec *token.Codec,
	refreshExpiry time.Duration,
	deviceLimit int64,
	log zerolog.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		userRepo:      userRepo,
		tokenRepo:     tokenRepo,
		deviceRepo:    deviceRepo,
		eventRepo:     eventRepo,
		verifier:      verifier,
		codec:         codec,
		refreshExpiry: refreshExpiry,
		deviceLimit:   deviceLimit,
		log:           log,
	}
}

// Login exchanges a Google ID token for a session: the user row is created
// on first sight of the subject and refreshed on every later login, a new
// refresh token is bound to the device, and a short-lived access token is
// issued.
func (u *AuthUsecase) Login(ctx context.Context, idToken, deviceID string, meta LoginMeta) (*TokenPair, error) {
	if idToken == "" || deviceID == "" {
		return nil, apperr.BadRequest("Missing id_token or device_id")
	}

	identity, err := u.verifier.Verify(ctx, idToken)
	if err != nil {
		u.log.Warn().Err(err).Msg("google token verification failed")
		return nil, apperr.InvalidGoogleToken
	}

	user, err := u.userRepo.Upsert(ctx, &domain.User{
		GoogleSub:  identity.Sub,
		Email:      identity.Email,
		Name:       identity.Name,
		PictureURL: identity.PictureURL,
	})
	if err != nil {
		return nil, err
	}

	rawSecret, err := u.issueRefreshToken(ctx, user.ID, deviceID, meta.DeviceInfo)
	if err != nil {
		return nil, err
	}

	accessToken, err := u.codec.Issue(user.ID, user.Email, deviceID)
	if err != nil {
		return nil, err
	}

	// Audit trail is best effort; a failed insert never fails the login.
	if err := u.eventRepo.Create(ctx, &domain.LoginEvent{
		UserID:     user.ID,
		AuthMethod: "google",
		DeviceID:   deviceID,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		u.log.Warn().Err(err).Stringer("user_id", user.ID).Msg("recording login event failed")
	}

	u.log.Info().Stringer("user_id", user.ID).Str("device_id", deviceID).Msg("login successful")

	return &TokenPair{
		AccessToken:  accessToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(u.codec.Lifetime().Seconds()),
		RefreshToken: rawSecret,
		User:         user,
	}, nil
}

func (u *AuthUsecase) issueRefreshToken(ctx context.Context, userID uuid.UUID, deviceID, deviceInfo string) (string, error) {
	rawSecret, digest, err := token.NewRefreshSecret()
	if err != nil {
		return "", err
	}
	err = u.tokenRepo.Create(ctx, &domain.RefreshToken{
		UserID:     userID,
		TokenHash:  digest,
		DeviceID:   deviceID,
		DeviceInfo: deviceInfo,
		ExpiresAt:  time.Now().Add(u.refreshExpiry),
	})
	if err != nil {
		return "", err
	}
	return rawSecret, nil
}

// Refresh rotates the presented refresh secret and issues a fresh access
// token. A secret is single-use: presenting an already-rotated one fails
// with INVALID_REFRESH_TOKEN, which clients treat as a signal to re-login.
func (u *AuthUsecase) Refresh(ctx context.Context, rawSecret, deviceID string) (*TokenPair, error) {
	if rawSecret == "" || deviceID == "" {
		return nil, apperr.BadRequest("Missing refresh_token or device_id")
	}

	newSecret, newDigest, err := token.NewRefreshSecret()
	if err != nil {
		return nil, err
	}

	replacement := &domain.RefreshToken{
		TokenHash: newDigest,
		ExpiresAt: time.Now().Add(u.refreshExpiry),
	}
	userID, err := u.tokenRepo.Rotate(ctx, token.HashSecret(rawSecret), deviceID, replacement)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			u.log.Warn().Str("device_id", deviceID).Msg("refresh token not found or revoked")
			return nil, apperr.InvalidRefreshToken
		}
		return nil, err
	}

	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, apperr.InvalidRefreshToken
	}

	accessToken, err := u.codec.Issue(user.ID, user.Email, deviceID)
	if err != nil {
		return nil, err
	}

	u.log.Info().Stringer("user_id", user.ID).Str("device_id", deviceID).Msg("token refreshed")

	return &TokenPair{
		AccessToken:  accessToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(u.codec.Lifetime().Seconds()),
		RefreshToken: newSecret,
	}, nil
}

// Logout revokes the caller's refresh tokens: the (user, device) pair from
// the access token, or every device when revokeAll is set.
func (u *AuthUsecase) Logout(ctx context.Context, auth *AuthContext, revokeAll bool) error {
	if revokeAll {
		if err := u.tokenRepo.RevokeAll(ctx, auth.UserID); err != nil {
			return err
		}
		u.log.Info().Stringer("user_id", auth.UserID).Msg("all refresh tokens revoked")
		return nil
	}

	if err := u.tokenRepo.RevokeForDevice(ctx, auth.UserID, auth.DeviceID); err != nil {
		return err
	}
	u.log.Info().Stringer("user_id", auth.UserID).Str("device_id", auth.DeviceID).Msg("device refresh tokens revoked")
	return nil
}

// Authorize is the gate every endpoint passes before doing its own work.
// In order: a valid access token authenticates from its claims alone; an
// expired one demands a refresh; a malformed one is rejected outright; no
// token at all falls through to anonymous device accounting against the
// lifetime cap.
func (u *AuthUsecase) Authorize(ctx context.Context, accessToken, deviceID string) (*AuthContext, error) {
	if accessToken != "" {
		claims, err := u.codec.Verify(accessToken)
		if err != nil {
			if errors.Is(err, token.ErrExpired) {
				return nil, apperr.AccessTokenExpired
			}
			return nil, apperr.InvalidAccessToken
		}
		return &AuthContext{
			Authenticated: true,
			UserID:        claims.UserID,
			Email:         claims.Email,
			DeviceID:      claims.DeviceID,
		}, nil
	}

	if deviceID == "" {
		return nil, apperr.BadRequest("X-Device-ID header is required")
	}

	count, err := u.deviceRepo.Increment(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if count > u.deviceLimit {
		u.log.Warn().Str("device_id", deviceID).Int64("count", count).Int64("limit", u.deviceLimit).
			Msg("device request limit exceeded")
		return nil, apperr.DeviceLimitExceeded
	}

	return &AuthContext{Authenticated: false, DeviceID: deviceID}, nil
}

// Profile returns the caller's user record. A missing or deactivated user
// invalidates the credential even if its signature still checks out.
func (u *AuthUsecase) Profile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, apperr.InvalidAccessToken
	}
	return user, nil
}

// LoginHistory lists the caller's recent login events.
func (u *AuthUsecase) LoginHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.LoginEvent, error) {
	return u.eventRepo.ListByUser(ctx, userID, limit, offset)
}

// SweepExpiredTokens deletes refresh token rows expired or revoked before
// the retention window. Run periodically from the server.
func (u *AuthUsecase) SweepExpiredTokens(ctx context.Context, retention time.Duration) (int64, error) {
	return u.tokenRepo.DeleteExpired(ctx, time.Now().Add(-retention))
}
