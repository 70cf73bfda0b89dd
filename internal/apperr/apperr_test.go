package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesByCode(t *testing.T) {
	assert.ErrorIs(t, BadRequest("missing device_id"), BadRequest("different reason"))
	assert.ErrorIs(t, InvalidRefreshToken, InvalidRefreshToken)
	assert.NotErrorIs(t, InvalidRefreshToken, InvalidAccessToken)

	wrapped := fmt.Errorf("handling request: %w", AccessTokenExpired)
	assert.ErrorIs(t, wrapped, AccessTokenExpired)
}

func TestFrom(t *testing.T) {
	assert.Equal(t, InvalidGoogleToken, From(InvalidGoogleToken))
	assert.Equal(t, InvalidGoogleToken, From(fmt.Errorf("login: %w", InvalidGoogleToken)))

	// Unknown failures never leak their message to clients.
	e := From(errors.New("pq: connection refused"))
	assert.Equal(t, CodeInternal, e.Code)
	assert.Equal(t, http.StatusInternalServerError, e.Status)
}

func TestStatuses(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, BadRequest("x").Status)
	assert.Equal(t, http.StatusUnauthorized, InvalidAccessToken.Status)
	assert.Equal(t, http.StatusUnauthorized, AccessTokenExpired.Status)
	assert.Equal(t, http.StatusUnauthorized, InvalidRefreshToken.Status)
	assert.Equal(t, http.StatusForbidden, DeviceLimitExceeded.Status)
}
