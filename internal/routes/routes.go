package routes

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/BradenHooton/traingate/internal/handlers"
	"github.com/BradenHooton/traingate/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	loginHandler *handlers.LoginHandler,
	staticDir string,
) {
	// Rate limiting config for the login endpoint. The adaptive ledger is
	// the real defense; this is an outer cap on raw request volume.
	rateLimitConfig := middleware.DefaultLoginRateLimit()

	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/api/login", loginHandler.Login)
	router.Post("/api/logout", loginHandler.Logout)
	router.Get("/api/session", loginHandler.Session)

	router.Handle("/metrics", promhttp.Handler())

	// Static site, with /gate.html served from disk like everything else
	router.Get("/*", staticHandler(staticDir))
}

// staticHandler serves files from staticDir, mapping "/" to index.html
// and unknown paths to 404.html.
func staticHandler(staticDir string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(staticDir))

	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/" {
			path = "/index.html"
		}

		full := filepath.Join(staticDir, filepath.Clean(path))
		if info, err := os.Stat(full); err != nil || info.IsDir() {
			body, err := os.ReadFile(filepath.Join(staticDir, "404.html"))
			if err != nil {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusNotFound)
			w.Write(body)
			return
		}

		fileServer.ServeHTTP(w, r)
	}
}
