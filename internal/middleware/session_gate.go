package middleware

import (
	"net/http"
	"strings"

	"github.com/BradenHooton/traingate/internal/auth"
	"github.com/BradenHooton/traingate/internal/metrics"
)

// TokenVerifier defines the interface for session token verification
type TokenVerifier interface {
	Verify(token string) bool
}

// SessionGateConfig holds the path classification for the request gate.
type SessionGateConfig struct {
	PublicExact    []string // paths allowed without a cookie, exact match
	PublicPrefixes []string // path prefixes allowed without a cookie
	GatePath       string   // redirect target for unauthenticated requests
	GateAliases    []string // paths that serve the gate itself (loop guard)
}

// DefaultSessionGateConfig mirrors the deployed allowlists: the gate page,
// the login/logout endpoints, and static assets stay reachable while
// everything else is default-deny.
func DefaultSessionGateConfig() SessionGateConfig {
	return SessionGateConfig{
		PublicExact: []string{
			"/gate",
			"/gate.html",
			"/api/login",
			"/api/logout",
			"/favicon.ico",
			"/404.html",
			"/health",
			"/metrics",
		},
		PublicPrefixes: []string{
			"/assets/",
			"/static/",
			"/public/",
			"/.well-known/",
			"/images/",
			"/css/",
			"/js/",
		},
		GatePath:    "/gate.html",
		GateAliases: []string{"/gate", "/gate.html"},
	}
}

// SessionGate classifies every request as public or protected and, for
// protected paths, requires a verifiable session cookie. It holds no state
// of its own: the decision is a pure function of path, cookie, and secret.
func SessionGate(codec TokenVerifier, m *metrics.Metrics, config SessionGateConfig) func(next http.Handler) http.Handler {
	exact := make(map[string]struct{}, len(config.PublicExact))
	for _, p := range config.PublicExact {
		exact[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Normalize one trailing slash, except for the bare root
			path := r.URL.Path
			if len(path) > 1 && strings.HasSuffix(path, "/") {
				path = path[:len(path)-1]
			}

			// Public paths pass without cookie inspection
			if _, ok := exact[path]; ok || hasPublicPrefix(path, config.PublicPrefixes) {
				m.ObserveGate("public")
				next.ServeHTTP(w, r)
				return
			}

			// Verified session cookie passes. A bad signature, a decode
			// error, and a missing cookie are indistinguishable from here
			// on; the client only ever sees the redirect.
			if token, err := auth.GetSessionCookie(r); err == nil && codec.Verify(token) {
				m.ObserveGate("allowed")
				next.ServeHTTP(w, r)
				return
			}

			// Never redirect the gate itself
			for _, alias := range config.GateAliases {
				if path == alias {
					m.ObserveGate("public")
					next.ServeHTTP(w, r)
					return
				}
			}

			m.ObserveGate("redirected")
			http.Redirect(w, r, config.GatePath, http.StatusFound)
		})
	}
}

func hasPublicPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
