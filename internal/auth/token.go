package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// payloadPrefix marks a session payload; the full payload is "ok.<millis>".
const payloadPrefix = "ok."

// TokenCodec mints and verifies the signed session token carried in the
// wt_session cookie. The token is base64("ok.<millis>." + hex HMAC-SHA256
// of the payload). Validity is signature-only; lifetime is bounded by the
// cookie's own Max-Age, not by the token.
type TokenCodec struct {
	secret  string
	nowFunc func() time.Time
}

// NewTokenCodec creates a TokenCodec signing with the given shared secret.
func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{
		secret:  secret,
		nowFunc: time.Now,
	}
}

// Issue mints a new session token at the current time.
func (tc *TokenCodec) Issue() string {
	payload := fmt.Sprintf("%s%d", payloadPrefix, tc.nowFunc().UnixMilli())
	return base64.StdEncoding.EncodeToString([]byte(payload + "." + tc.sign(payload)))
}

// Verify reports whether the token carries a valid signature. It fails
// closed on any decode error or malformed structure. The payload is split
// from the signature on the last dot so an embedded dot in the payload
// never confuses the parse.
func (tc *TokenCodec) Verify(token string) bool {
	payload, sig, ok := tc.split(token)
	if !ok {
		return false
	}
	expected := tc.sign(payload)
	return hmac.Equal([]byte(sig), []byte(expected))
}

// IssuedAt recovers the issuance timestamp from a token. Returns false for
// tokens that fail verification or carry an unparseable payload.
func (tc *TokenCodec) IssuedAt(token string) (time.Time, bool) {
	if !tc.Verify(token) {
		return time.Time{}, false
	}

	payload, _, _ := tc.split(token)
	if !strings.HasPrefix(payload, payloadPrefix) {
		return time.Time{}, false
	}

	millis, err := strconv.ParseInt(payload[len(payloadPrefix):], 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(millis), true
}

func (tc *TokenCodec) split(token string) (payload, sig string, ok bool) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", "", false
	}

	decoded := string(raw)
	lastDot := strings.LastIndex(decoded, ".")
	if lastDot == -1 {
		return "", "", false
	}
	return decoded[:lastDot], decoded[lastDot+1:], true
}

func (tc *TokenCodec) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(tc.secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
