package config

import (
	"os"
	"testing"
	"time"
)

func setRequiredEnv() {
	os.Setenv("PIN", "4242")
	os.Setenv("SESSION_SECRET", "test-secret-32-characters-long!")
	os.Setenv("TURNSTILE_SECRET_KEY", "0x4AAAAAAATestKey")
	os.Setenv("DB_PASSWORD", "test")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv()
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	tests := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"SessionMaxAge", cfg.Gate.SessionMaxAge, 24 * time.Hour},
		{"LedgerRetention", cfg.Gate.LedgerRetention, 24 * time.Hour},
		{"ChallengeTimeout", cfg.Gate.ChallengeTimeout, 5 * time.Second},
		{"ReadTimeout", cfg.Server.ReadTimeout, 15 * time.Second},
		{"WriteTimeout", cfg.Server.WriteTimeout, 15 * time.Second},
		{"IdleTimeout", cfg.Server.IdleTimeout, 60 * time.Second},
	}

	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}
}

func TestLoad_MissingPIN(t *testing.T) {
	setRequiredEnv()
	os.Unsetenv("PIN")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for missing PIN")
	}
}

func TestLoad_MissingSessionSecret(t *testing.T) {
	setRequiredEnv()
	os.Unsetenv("SESSION_SECRET")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for missing SESSION_SECRET")
	}
}

func TestLoad_MissingTurnstileSecret(t *testing.T) {
	setRequiredEnv()
	os.Unsetenv("TURNSTILE_SECRET_KEY")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for missing TURNSTILE_SECRET_KEY")
	}
}

func TestLoad_WeakSessionSecret(t *testing.T) {
	setRequiredEnv()
	os.Setenv("SESSION_SECRET", "short")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for weak SESSION_SECRET")
	}
}

func TestLoad_ProductionSecretLength(t *testing.T) {
	setRequiredEnv()
	os.Setenv("ENV", "production")
	os.Setenv("SESSION_SECRET", "only-twenty-chars!!!")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for short production SESSION_SECRET")
	}
}

func TestLoad_TrustedProxies(t *testing.T) {
	setRequiredEnv()
	os.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if len(cfg.Server.TrustedProxies) != 2 {
		t.Fatalf("expected 2 trusted proxies, got %d", len(cfg.Server.TrustedProxies))
	}
	if cfg.Server.TrustedProxies[1] != "172.16.0.0/12" {
		t.Errorf("expected trimmed CIDR, got %q", cfg.Server.TrustedProxies[1])
	}
}
