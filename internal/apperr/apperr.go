// Package apperr defines the typed rejections returned by the session core.
// Every failure carries a machine-readable code and a human-readable reason;
// callers match with errors.As and map the code to a transport status.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes recognized by clients.
const (
	CodeBadRequest          = "BAD_REQUEST"
	CodeInvalidGoogleToken  = "INVALID_GOOGLE_TOKEN"
	CodeInvalidAccessToken  = "INVALID_ACCESS_TOKEN"
	CodeAccessTokenExpired  = "ACCESS_TOKEN_EXPIRED"
	CodeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
	CodeDeviceLimitExceeded = "TOKEN_NOT_PROVIDED_LIMIT_EXCEEDED"
	CodeInternal            = "INTERNAL_ERROR"
)

type Error struct {
	Code   string
	Reason string
	Status int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

// Is makes two app errors equal when their codes match, so sentinel
// comparisons like errors.Is(err, apperr.InvalidRefreshToken) work even for
// errors built with a custom reason.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func New(code, reason string, status int) *Error {
	return &Error{Code: code, Reason: reason, Status: status}
}

// BadRequest builds a BAD_REQUEST error with a request-specific reason.
func BadRequest(reason string) *Error {
	return New(CodeBadRequest, reason, http.StatusBadRequest)
}

var (
	InvalidGoogleToken  = New(CodeInvalidGoogleToken, "Google token invalid or expired", http.StatusUnauthorized)
	InvalidAccessToken  = New(CodeInvalidAccessToken, "Access token invalid or malformed", http.StatusUnauthorized)
	AccessTokenExpired  = New(CodeAccessTokenExpired, "Access token expired; please refresh", http.StatusUnauthorized)
	InvalidRefreshToken = New(CodeInvalidRefreshToken, "Refresh token invalid or revoked", http.StatusUnauthorized)
	DeviceLimitExceeded = New(CodeDeviceLimitExceeded, "Request token missing and unauthenticated device exceeded allowed anonymous requests", http.StatusForbidden)
	Internal            = New(CodeInternal, "Internal server error", http.StatusInternalServerError)
)

// From maps an arbitrary error to an app error, wrapping unknown failures
// as INTERNAL_ERROR so persistence details never leak to clients.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal
}
