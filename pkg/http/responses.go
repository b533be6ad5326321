package http

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// GateResponse is the wire shape for every login-endpoint outcome.
type GateResponse struct {
	OK         bool   `json:"ok"`
	Reason     string `json:"reason,omitempty"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

// writeJSON emits a gate response. Every response is marked no-store:
// nothing the gate says may be replayed from a cache.
func writeJSON(w http.ResponseWriter, statusCode int, resp GateResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)

	_ = json.NewEncoder(w).Encode(resp)
}

// WriteLoginOK reports a successful login. The session cookie must already
// be set on the writer.
func WriteLoginOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, GateResponse{OK: true})
}

// WriteInvalidCredential rejects with the generic invalid outcome.
func WriteInvalidCredential(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, GateResponse{OK: false, Reason: "invalid"})
}

// WriteChallengeFailed instructs the client to solve a challenge first.
func WriteChallengeFailed(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, GateResponse{OK: false, Reason: "challenge"})
}

// WriteCooldown rejects a throttled attempt with machine-readable retry
// timing in both the body and the Retry-After header.
func WriteCooldown(w http.ResponseWriter, retryAfterSeconds int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	writeJSON(w, http.StatusTooManyRequests, GateResponse{
		OK:         false,
		Reason:     "cooldown",
		RetryAfter: retryAfterSeconds,
	})
}

// WriteUnauthorized rejects a request that reached a handler without a
// usable session.
func WriteUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, GateResponse{OK: false, Reason: "invalid"})
}

// WriteInternalError hides internal detail behind a generic failure.
func WriteInternalError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, GateResponse{OK: false, Reason: "internal"})
}
