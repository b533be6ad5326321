// Package challenge verifies interactive human-verification solutions
// against Cloudflare Turnstile.
package challenge

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const siteverifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// TurnstileVerifier confirms challenge solution tokens with the Turnstile
// siteverify endpoint. It holds no local state; every boundary failure
// (transport, timeout, bad status, malformed JSON) verifies as false.
type TurnstileVerifier struct {
	secret   string
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// NewTurnstileVerifier creates a verifier with a bounded request timeout.
// The timeout is mandatory: a wedged verification service must read as a
// failed challenge, not an open-ended stall.
func NewTurnstileVerifier(secret string, timeout time.Duration, logger *slog.Logger) *TurnstileVerifier {
	return &TurnstileVerifier{
		secret:   secret,
		endpoint: siteverifyURL,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify checks a solution token for a client identity. An empty token is
// rejected without a network call.
func (v *TurnstileVerifier) Verify(ctx context.Context, solutionToken, remoteIP string) bool {
	if solutionToken == "" {
		return false
	}

	form := url.Values{
		"secret":   {v.secret},
		"response": {solutionToken},
		"remoteip": {remoteIP},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		v.logger.Warn("failed to build challenge verification request", slog.Any("error", err))
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.Warn("challenge verification call failed", slog.Any("error", err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		v.logger.Warn("challenge verification returned non-200", slog.Int("status", resp.StatusCode))
		return false
	}

	var result siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		v.logger.Warn("failed to decode challenge verification response", slog.Any("error", err))
		return false
	}

	if !result.Success && len(result.ErrorCodes) > 0 {
		v.logger.Warn("challenge rejected by verification service",
			slog.String("error_codes", strings.Join(result.ErrorCodes, ",")))
	}

	return result.Success
}
