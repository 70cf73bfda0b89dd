package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	l := NewRateLimiter(3)
	handler := l.Limit(okHandler())

	for i := 0; i < 3; i++ {
		rec := doRequest(handler, map[string]string{DeviceIDHeader: "device-1"})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doRequest(handler, map[string]string{DeviceIDHeader: "device-1"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_001", decodeError(t, rec)["error_code"])
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	l := NewRateLimiter(1)
	handler := l.Limit(okHandler())

	rec := doRequest(handler, map[string]string{DeviceIDHeader: "device-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(handler, map[string]string{DeviceIDHeader: "device-1"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = doRequest(handler, map[string]string{DeviceIDHeader: "device-2"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_FallsBackToRemoteAddr(t *testing.T) {
	l := NewRateLimiter(1)
	handler := l.Limit(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5678"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimiter_Disabled(t *testing.T) {
	l := NewRateLimiter(0)
	handler := l.Limit(okHandler())

	for i := 0; i < 10; i++ {
		rec := doRequest(handler, map[string]string{DeviceIDHeader: "device-1"})
		require.Equal(t, http.StatusOK, rec.Code)
	}
}
