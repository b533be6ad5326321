package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/traingate/internal/auth"
	"github.com/BradenHooton/traingate/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func newGateHandler(t *testing.T, codec *auth.TokenCodec) http.Handler {
	t.Helper()

	gate := SessionGate(codec, metrics.NewWith(prometheus.NewRegistry()), DefaultSessionGateConfig())
	return gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func doRequest(handler http.Handler, path, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: cookie})
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSessionGate_PublicPathsBypassCookieCheck(t *testing.T) {
	codec := auth.NewTokenCodec("test-secret-32-characters-long!")
	handler := newGateHandler(t, codec)

	paths := []string{
		"/gate",
		"/gate.html",
		"/api/login",
		"/api/logout",
		"/favicon.ico",
		"/404.html",
		"/assets/app.js",
		"/css/site.css",
		"/js/charts.js",
		"/images/logo.png",
		"/.well-known/security.txt",
	}

	for _, path := range paths {
		if rec := doRequest(handler, path, ""); rec.Code != http.StatusOK {
			t.Errorf("GET %s without cookie = %d, want 200", path, rec.Code)
		}
	}
}

func TestSessionGate_ProtectedPathRedirectsWithoutCookie(t *testing.T) {
	codec := auth.NewTokenCodec("test-secret-32-characters-long!")
	handler := newGateHandler(t, codec)

	rec := doRequest(handler, "/", "")
	if rec.Code != http.StatusFound {
		t.Fatalf("GET / without cookie = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/gate.html" {
		t.Errorf("Location = %q, want /gate.html", loc)
	}
}

func TestSessionGate_ValidCookieAllows(t *testing.T) {
	codec := auth.NewTokenCodec("test-secret-32-characters-long!")
	handler := newGateHandler(t, codec)

	rec := doRequest(handler, "/api/session", codec.Issue())
	if rec.Code != http.StatusOK {
		t.Errorf("GET /api/session with valid cookie = %d, want 200", rec.Code)
	}
}

func TestSessionGate_InvalidCookieIndistinguishableFromNone(t *testing.T) {
	codec := auth.NewTokenCodec("test-secret-32-characters-long!")
	other := auth.NewTokenCodec("a-completely-different-secret!!")
	handler := newGateHandler(t, codec)

	cookies := []string{
		"garbage",
		other.Issue(), // well-formed, wrong secret
	}

	for _, cookie := range cookies {
		rec := doRequest(handler, "/workouts", cookie)
		if rec.Code != http.StatusFound {
			t.Errorf("GET /workouts with cookie %q = %d, want 302", cookie, rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/gate.html" {
			t.Errorf("Location = %q, want /gate.html", loc)
		}
	}
}

func TestSessionGate_NoRedirectLoopOnGatePage(t *testing.T) {
	codec := auth.NewTokenCodec("test-secret-32-characters-long!")
	handler := newGateHandler(t, codec)

	// Requesting the gate twice never redirects
	for i := 0; i < 2; i++ {
		if rec := doRequest(handler, "/gate.html", ""); rec.Code != http.StatusOK {
			t.Fatalf("GET /gate.html request %d = %d, want 200", i+1, rec.Code)
		}
	}
}

func TestSessionGate_TrailingSlashNormalization(t *testing.T) {
	codec := auth.NewTokenCodec("test-secret-32-characters-long!")
	handler := newGateHandler(t, codec)

	// "/gate/" normalizes to "/gate" and passes
	if rec := doRequest(handler, "/gate/", ""); rec.Code != http.StatusOK {
		t.Errorf("GET /gate/ = %d, want 200", rec.Code)
	}

	// The bare root keeps its slash and stays protected
	if rec := doRequest(handler, "/", ""); rec.Code != http.StatusFound {
		t.Errorf("GET / = %d, want 302", rec.Code)
	}
}
