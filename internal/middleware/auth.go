// Package middleware holds the HTTP gates applied before request handlers:
// the authentication decision and the per-minute limiter.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/caten-app/backend/internal/apperr"
	"github.com/caten-app/backend/internal/usecase"
)

type contextKey string

const authContextKey contextKey = "authContext"

// DeviceIDHeader identifies the client installation. Every request without
// an access token must carry it.
const DeviceIDHeader = "X-Device-ID"

type AuthMiddleware struct {
	authUsecase *usecase.AuthUsecase
	log         zerolog.Logger
}

func NewAuthMiddleware(authUsecase *usecase.AuthUsecase, log zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{authUsecase: authUsecase, log: log}
}

// UserOrDevice admits both authenticated and anonymous callers. A valid
// access token yields an authenticated context; no token falls through to
// device accounting against the lifetime anonymous cap.
func (m *AuthMiddleware) UserOrDevice(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accessToken, err := bearerToken(r)
		if err != nil {
			writeAppError(w, apperr.InvalidAccessToken)
			return
		}

		auth, err := m.authUsecase.Authorize(r.Context(), accessToken, r.Header.Get(DeviceIDHeader))
		if err != nil {
			writeAppError(w, apperr.From(err))
			return
		}

		next.ServeHTTP(w, r.WithContext(withAuthContext(r.Context(), auth)))
	})
}

// RequireUser admits only callers presenting a currently valid access token.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accessToken, err := bearerToken(r)
		if err != nil || accessToken == "" {
			writeAppError(w, apperr.InvalidAccessToken)
			return
		}

		auth, err := m.authUsecase.Authorize(r.Context(), accessToken, r.Header.Get(DeviceIDHeader))
		if err != nil {
			writeAppError(w, apperr.From(err))
			return
		}

		next.ServeHTTP(w, r.WithContext(withAuthContext(r.Context(), auth)))
	})
}

// bearerToken extracts the access token from the Authorization header. An
// absent header means no credential; a header with another scheme is a
// malformed credential, not an anonymous request.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", nil
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", apperr.InvalidAccessToken
	}
	return parts[1], nil
}

func withAuthContext(ctx context.Context, auth *usecase.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, auth)
}

// GetAuthContext returns the authorize outcome stored by the middleware.
func GetAuthContext(ctx context.Context) (*usecase.AuthContext, bool) {
	auth, ok := ctx.Value(authContextKey).(*usecase.AuthContext)
	return auth, ok
}

func writeAppError(w http.ResponseWriter, e *apperr.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	json.NewEncoder(w).Encode(map[string]string{
		"error_code":   e.Code,
		"error_reason": e.Reason,
	})
}
