package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BradenHooton/traingate/internal/auth"
	"github.com/BradenHooton/traingate/internal/background"
	"github.com/BradenHooton/traingate/internal/challenge"
	"github.com/BradenHooton/traingate/internal/config"
	"github.com/BradenHooton/traingate/internal/database"
	"github.com/BradenHooton/traingate/internal/handlers"
	"github.com/BradenHooton/traingate/internal/metrics"
	middlewareCustom "github.com/BradenHooton/traingate/internal/middleware"
	"github.com/BradenHooton/traingate/internal/repositories"
	"github.com/BradenHooton/traingate/internal/routes"
	"github.com/BradenHooton/traingate/internal/services"
	pkghttp "github.com/BradenHooton/traingate/pkg/http"
	pkglogger "github.com/BradenHooton/traingate/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize repository and throttle ledger
	ledgerRepo := repositories.NewLedgerRepository(db)
	throttleService := services.NewThrottleService(ledgerRepo, services.ThrottleConfig{
		Retention: cfg.Gate.LedgerRetention,
	}, logger)

	// Initialize cleanup manager
	cleanupManager := background.NewCleanupManager(ledgerRepo, logger, cfg.Gate.CleanupInterval)

	// Token codec for session cookies
	tokenCodec := auth.NewTokenCodec(cfg.Gate.SessionSecret)

	// Turnstile challenge verifier
	challengeVerifier := challenge.NewTurnstileVerifier(cfg.Gate.TurnstileSecretKey, cfg.Gate.ChallengeTimeout, logger)

	// Timing delay for failed attempts
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Gate.TimingDelayBaseMs,
		RandomDelayMs: cfg.Gate.TimingDelayRandomMs,
	})

	auditLogger := pkglogger.NewAuditLogger(logger)
	appMetrics := metrics.New()

	// Initialize services
	loginService := services.NewLoginService(
		throttleService,
		challengeVerifier,
		tokenCodec,
		timingDelay,
		appMetrics,
		auditLogger,
		logger,
		cfg.Gate.PIN,
	)

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	loginHandler := handlers.NewLoginHandler(loginService, tokenCodec, ipConfig, int(cfg.Gate.SessionMaxAge.Seconds()))

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(middlewareCustom.SessionGate(tokenCodec, appMetrics, middlewareCustom.DefaultSessionGateConfig()))

	// Register routes
	routes.RegisterRoutes(router, loginHandler, cfg.Server.StaticDir)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
