package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/BradenHooton/traingate/internal/auth"
	"github.com/BradenHooton/traingate/internal/models"
	pkghttp "github.com/BradenHooton/traingate/pkg/http"
)

// LoginServiceInterface defines the interface for login business logic
type LoginServiceInterface interface {
	Attempt(ctx context.Context, identity, pin, challengeToken, userAgent string) (string, error)
}

// LoginHandler handles the gate's authentication endpoints
type LoginHandler struct {
	service      LoginServiceInterface
	codec        *auth.TokenCodec
	ipConfig     *pkghttp.IPConfig
	cookieMaxAge int
}

// NewLoginHandler creates a new LoginHandler
func NewLoginHandler(service LoginServiceInterface, codec *auth.TokenCodec, ipConfig *pkghttp.IPConfig, cookieMaxAge int) *LoginHandler {
	return &LoginHandler{
		service:      service,
		codec:        codec,
		ipConfig:     ipConfig,
		cookieMaxAge: cookieMaxAge,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	PIN            string `json:"pin"`
	ChallengeToken string `json:"challengeToken"`
}

// Login handles POST /api/login.
//
// A body that fails to decode is treated as an empty PIN rather than a
// 400: a malformed submission is still an attempt and must hit the
// ledger like any other wrong credential.
func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = LoginRequest{}
	}

	identity := pkghttp.ExtractClientIP(r, h.ipConfig)
	userAgent := r.Header.Get("User-Agent")

	token, err := h.service.Attempt(r.Context(), identity, req.PIN, req.ChallengeToken, userAgent)
	if err != nil {
		var cooldown *models.CooldownError
		switch {
		case errors.As(err, &cooldown):
			pkghttp.WriteCooldown(w, cooldown.RetryAfterSeconds())
		case errors.Is(err, models.ErrChallengeFailed):
			pkghttp.WriteChallengeFailed(w)
		default:
			pkghttp.WriteInvalidCredential(w)
		}
		return
	}

	auth.SetSessionCookie(w, token, h.cookieMaxAge)
	pkghttp.WriteLoginOK(w)
}

// Logout handles POST /api/logout. Clearing the cookie is all there is
// to it; the token carries no server-side state to revoke.
func (h *LoginHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	pkghttp.WriteLoginOK(w)
}

// SessionResponse represents the response body for session status
type SessionResponse struct {
	OK       bool  `json:"ok"`
	IssuedAt int64 `json:"issuedAt,omitempty"`
}

// Session handles GET /api/session, reporting whether the caller holds
// a valid session cookie and when it was minted.
func (h *LoginHandler) Session(w http.ResponseWriter, r *http.Request) {
	token, err := auth.GetSessionCookie(r)
	if err != nil {
		pkghttp.WriteUnauthorized(w)
		return
	}

	issuedAt, ok := h.codec.IssuedAt(token)
	if !ok {
		pkghttp.WriteUnauthorized(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(SessionResponse{OK: true, IssuedAt: issuedAt.UnixMilli()})
}
