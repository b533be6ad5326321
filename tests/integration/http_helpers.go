package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/BradenHooton/traingate/internal/auth"
	"github.com/BradenHooton/traingate/internal/handlers"
	"github.com/BradenHooton/traingate/internal/metrics"
	middlewareCustom "github.com/BradenHooton/traingate/internal/middleware"
	"github.com/BradenHooton/traingate/internal/repositories"
	"github.com/BradenHooton/traingate/internal/services"
	pkghttp "github.com/BradenHooton/traingate/pkg/http"
	pkglogger "github.com/BradenHooton/traingate/pkg/logger"
)

const (
	TestPIN    = "4242"
	TestSecret = "integration-secret-32-chars-long"
)

// StubChallengeVerifier replaces the Turnstile round trip with a canned
// answer and records what it was asked to verify.
type StubChallengeVerifier struct {
	mu     sync.Mutex
	Result bool
	Tokens []string
}

func (s *StubChallengeVerifier) Verify(ctx context.Context, solutionToken, remoteIP string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Tokens = append(s.Tokens, solutionToken)
	return s.Result
}

// TestServer bundles the running HTTP stack with the pieces tests poke at
type TestServer struct {
	Server    *httptest.Server
	Codec     *auth.TokenCodec
	Challenge *StubChallengeVerifier
	Throttle  *services.ThrottleService
}

// SetupTestServer wires the full router over the given database the way
// cmd/api does, with the challenge verifier stubbed out.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func SetupTestServer(db *TestDB) *TestServer {
	logger := discardLogger()

	ledgerRepo := repositories.NewLedgerRepository(db.DB)
	throttleService := services.NewThrottleService(ledgerRepo, services.ThrottleConfig{
		Retention: 24 * time.Hour,
	}, logger)

	codec := auth.NewTokenCodec(TestSecret)
	challenge := &StubChallengeVerifier{Result: true}
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{})
	appMetrics := metrics.NewWith(prometheus.NewRegistry())
	auditLogger := pkglogger.NewAuditLogger(logger)

	loginService := services.NewLoginService(
		throttleService,
		challenge,
		codec,
		timingDelay,
		appMetrics,
		auditLogger,
		logger,
		TestPIN,
	)

	ipConfig := &pkghttp.IPConfig{TrustedProxies: []string{"127.0.0.1/32", "::1/128"}}
	loginHandler := handlers.NewLoginHandler(loginService, codec, ipConfig, 86400)

	router := chi.NewRouter()
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Recoverer)
	router.Use(middlewareCustom.SessionGate(codec, appMetrics, middlewareCustom.DefaultSessionGateConfig()))

	router.Post("/api/login", loginHandler.Login)
	router.Post("/api/logout", loginHandler.Logout)
	router.Get("/api/session", loginHandler.Session)
	router.Get("/protected", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return &TestServer{
		Server:    httptest.NewServer(router),
		Codec:     codec,
		Challenge: challenge,
		Throttle:  throttleService,
	}
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	ts.Server.Close()
}

// LoginResult captures the pieces of a login response tests assert on
type LoginResult struct {
	Status     int
	OK         bool
	Reason     string
	RetryAfter int
	RetryHdr   string
	Cookie     *http.Cookie
}

// PostLogin submits a login attempt for the given forwarded identity
func (ts *TestServer) PostLogin(t interface{ Fatalf(string, ...any) }, identity, pin, challengeToken string) LoginResult {
	body := map[string]string{"pin": pin}
	if challengeToken != "" {
		body["challengeToken"] = challengeToken
	}
	payload, _ := json.Marshal(body)

	req, err := http.NewRequest("POST", ts.Server.URL+"/api/login", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("failed to build login request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", identity)

	resp, err := ts.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer resp.Body.Close()

	var decoded struct {
		OK         bool   `json:"ok"`
		Reason     string `json:"reason"`
		RetryAfter int    `json:"retryAfter"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}

	result := LoginResult{
		Status:     resp.StatusCode,
		OK:         decoded.OK,
		Reason:     decoded.Reason,
		RetryAfter: decoded.RetryAfter,
		RetryHdr:   resp.Header.Get("Retry-After"),
	}
	for _, c := range resp.Cookies() {
		if c.Name == auth.SessionCookieName {
			result.Cookie = c
		}
	}
	return result
}

// GetWithCookie fetches a path with an optional session cookie, without
// following redirects.
func (ts *TestServer) GetWithCookie(t interface{ Fatalf(string, ...any) }, path string, cookie *http.Cookie) *http.Response {
	req, err := http.NewRequest("GET", ts.Server.URL+path, nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	return resp
}
