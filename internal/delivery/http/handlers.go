package http

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/caten-app/backend/internal/apperr"
	"github.com/caten-app/backend/internal/middleware"
	"github.com/caten-app/backend/internal/usecase"
)

type Handler struct {
	authUsecase *usecase.AuthUsecase
	log         zerolog.Logger
}

func NewHandler(auth *usecase.AuthUsecase, log zerolog.Logger) *Handler {
	return &Handler{authUsecase: auth, log: log}
}

type errorResponse struct {
	ErrorCode   string `json:"error_code"`
	ErrorReason string `json:"error_reason"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	e := apperr.From(err)
	if e.Code == apperr.CodeInternal && !errors.Is(err, apperr.Internal) {
		h.log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, e.Status, errorResponse{ErrorCode: e.Code, ErrorReason: e.Reason})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Auth handlers

type googleLoginRequest struct {
	IDToken    string `json:"id_token"`
	DeviceID   string `json:"device_id"`
	DeviceInfo string `json:"device_info,omitempty"`
}

func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.BadRequest("Invalid request body"))
		return
	}

	pair, err := h.authUsecase.Login(r.Context(), req.IDToken, req.DeviceID, usecase.LoginMeta{
		DeviceInfo: req.DeviceInfo,
		IPAddress:  clientIP(r),
		UserAgent:  r.UserAgent(),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
	DeviceID     string `json:"device_id"`
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.BadRequest("Invalid request body"))
		return
	}

	pair, err := h.authUsecase.Refresh(r.Context(), req.RefreshToken, req.DeviceID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

type logoutRequest struct {
	RevokeAll bool `json:"revoke_all"`
}

type logoutResponse struct {
	OK bool `json:"ok"`
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.GetAuthContext(r.Context())
	if !ok || !auth.Authenticated {
		h.writeError(w, apperr.InvalidAccessToken)
		return
	}

	// Body is optional; absent means device-scoped logout.
	var req logoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, apperr.BadRequest("Invalid request body"))
		return
	}

	if err := h.authUsecase.Logout(r.Context(), auth, req.RevokeAll); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, logoutResponse{OK: true})
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.GetAuthContext(r.Context())
	if !ok || !auth.Authenticated {
		h.writeError(w, apperr.InvalidAccessToken)
		return
	}

	user, err := h.authUsecase.Profile(r.Context(), auth.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) GetLoginHistory(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.GetAuthContext(r.Context())
	if !ok || !auth.Authenticated {
		h.writeError(w, apperr.InvalidAccessToken)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	events, err := h.authUsecase.LoginHistory(r.Context(), auth.UserID, limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"logins": events})
}

type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"user_id,omitempty"`
	Email         string `json:"email,omitempty"`
	DeviceID      string `json:"device_id,omitempty"`
}

// GetSession reports the outcome of the authorize gate for the calling
// client: who it is when authenticated, or which device quota it is
// consuming when anonymous.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		h.writeError(w, apperr.Internal)
		return
	}

	resp := sessionResponse{
		Authenticated: auth.Authenticated,
		DeviceID:      auth.DeviceID,
	}
	if auth.Authenticated {
		resp.UserID = auth.UserID.String()
		resp.Email = auth.Email
	}
	writeJSON(w, http.StatusOK, resp)
}
