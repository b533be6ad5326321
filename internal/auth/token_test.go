package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"
)

func TestTokenCodec_RoundTrip(t *testing.T) {
	secrets := []string{
		"test-secret-32-characters-long!",
		"another secret with spaces",
		"short-but-valid-key",
	}

	for _, secret := range secrets {
		tc := NewTokenCodec(secret)
		token := tc.Issue()

		if !tc.Verify(token) {
			t.Errorf("Verify(Issue()) = false for secret %q, want true", secret)
		}
	}
}

func TestTokenCodec_VerifyFailsClosed(t *testing.T) {
	tc := NewTokenCodec("test-secret-32-characters-long!")

	tests := []struct {
		name  string
		token string
	}{
		{"empty string", ""},
		{"non-base64 garbage", "!!!not-base64!!!"},
		{"base64 without separator", base64.StdEncoding.EncodeToString([]byte("no separator here"))},
		{"valid base64 random bytes", base64.StdEncoding.EncodeToString([]byte{0x00, 0xff, 0x10, 0x7f})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tc.Verify(tt.token) {
				t.Errorf("Verify(%q) = true, want false", tt.token)
			}
		})
	}
}

func TestTokenCodec_VerifyRejectsTamperedSignature(t *testing.T) {
	tc := NewTokenCodec("test-secret-32-characters-long!")
	token := tc.Issue()

	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("failed to decode issued token: %v", err)
	}

	// Flip the last signature character
	decoded := []byte(string(raw))
	last := decoded[len(decoded)-1]
	if last == 'a' {
		decoded[len(decoded)-1] = 'b'
	} else {
		decoded[len(decoded)-1] = 'a'
	}
	tampered := base64.StdEncoding.EncodeToString(decoded)

	if tc.Verify(tampered) {
		t.Error("Verify(tampered token) = true, want false")
	}
}

func TestTokenCodec_VerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenCodec("test-secret-32-characters-long!")
	verifier := NewTokenCodec("a-completely-different-secret!!")

	token := issuer.Issue()
	if verifier.Verify(token) {
		t.Error("Verify with different secret = true, want false")
	}
}

func TestTokenCodec_PayloadWithEmbeddedDot(t *testing.T) {
	// The payload format itself contains a dot ("ok.<millis>"); splitting
	// on the last dot must recover the full payload.
	tc := NewTokenCodec("test-secret-32-characters-long!")
	token := tc.Issue()

	raw, _ := base64.StdEncoding.DecodeString(token)
	if got := strings.Count(string(raw), "."); got != 2 {
		t.Fatalf("issued token contains %d dots, want 2", got)
	}
	if !tc.Verify(token) {
		t.Error("Verify(token with embedded payload dot) = false, want true")
	}
}

func TestTokenCodec_IssuedAt(t *testing.T) {
	issued := time.Date(2025, 8, 25, 12, 0, 0, 0, time.UTC)
	tc := NewTokenCodec("test-secret-32-characters-long!")
	tc.nowFunc = func() time.Time { return issued }

	token := tc.Issue()

	got, ok := tc.IssuedAt(token)
	if !ok {
		t.Fatal("IssuedAt(valid token) = false, want true")
	}
	if !got.Equal(issued) {
		t.Errorf("IssuedAt = %v, want %v", got, issued)
	}
}

func TestTokenCodec_IssuedAtRejectsInvalid(t *testing.T) {
	tc := NewTokenCodec("test-secret-32-characters-long!")

	if _, ok := tc.IssuedAt("garbage"); ok {
		t.Error("IssuedAt(garbage) = true, want false")
	}
}
