package services

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"time"

	"github.com/BradenHooton/traingate/internal/auth"
	"github.com/BradenHooton/traingate/internal/metrics"
	"github.com/BradenHooton/traingate/internal/models"
	pkglogger "github.com/BradenHooton/traingate/pkg/logger"
)

// ChallengeVerifier defines the interface for interactive challenge checks
type ChallengeVerifier interface {
	Verify(ctx context.Context, solutionToken, remoteIP string) bool
}

// FailureLedger defines the interface for per-identity throttle state
type FailureLedger interface {
	Read(ctx context.Context, identity string) (models.FailureRecord, error)
	RecordFailure(ctx context.Context, identity string) (models.FailureRecord, error)
	Reset(ctx context.Context, identity string) error
}

// LoginService orchestrates one login attempt: cooldown check, challenge
// check, credential check, token mint. All ledger writes happen here; the
// rest of the system only ever reads the cookie.
type LoginService struct {
	ledger     FailureLedger
	challenges ChallengeVerifier
	tokens     *auth.TokenCodec
	timing     *auth.TimingDelay
	metrics    *metrics.Metrics
	audit      *pkglogger.AuditLogger
	logger     *slog.Logger
	pin        string
	nowFunc    func() time.Time
}

// NewLoginService creates a new LoginService
func NewLoginService(
	ledger FailureLedger,
	challenges ChallengeVerifier,
	tokens *auth.TokenCodec,
	timing *auth.TimingDelay,
	m *metrics.Metrics,
	audit *pkglogger.AuditLogger,
	logger *slog.Logger,
	pin string,
) *LoginService {
	return &LoginService{
		ledger:     ledger,
		challenges: challenges,
		tokens:     tokens,
		timing:     timing,
		metrics:    m,
		audit:      audit,
		logger:     logger,
		pin:        pin,
		nowFunc:    time.Now,
	}
}

// Attempt runs the login state machine for one request. On success it
// returns a freshly minted session token; otherwise the error is one of
// *models.CooldownError, models.ErrChallengeFailed, or
// models.ErrInvalidCredential.
func (s *LoginService) Attempt(ctx context.Context, identity, pin, challengeToken, userAgent string) (string, error) {
	now := s.nowFunc()

	rec, err := s.ledger.Read(ctx, identity)
	if err != nil {
		// Ledger unavailable: fail open for availability. The per-IP
		// request limiter in front of this endpoint still caps volume,
		// and a store outage must not lock the owner out.
		s.logger.Error("failure ledger read failed", slog.Any("error", err))
		rec = models.FailureRecord{Identity: identity}
	}

	// An active cooldown rejects before any credential comparison, so a
	// locked-out caller learns nothing about the PIN they submitted.
	if rec.Active(now) {
		s.observe(identity, userAgent, "cooldown", rec.Fails, false)
		return "", &models.CooldownError{RetryAfter: rec.RetryAfter(now)}
	}

	// Verify a solution token whenever the ledger demands one or the
	// caller volunteered one. Only a required-and-failed challenge counts
	// as a failed attempt.
	if rec.RequireChallenge || challengeToken != "" {
		start := s.nowFunc()
		passed := s.challenges.Verify(ctx, challengeToken, identity)
		s.metrics.ObserveChallenge(start)

		if rec.RequireChallenge && !passed {
			updated := s.recordFailure(ctx, identity)
			s.timing.Wait()
			s.observe(identity, userAgent, "challenge", updated.Fails, false)
			return "", models.ErrChallengeFailed
		}
	}

	if pin == "" || subtle.ConstantTimeCompare([]byte(pin), []byte(s.pin)) != 1 {
		updated := s.recordFailure(ctx, identity)
		s.timing.Wait()

		if updated.Active(s.nowFunc()) {
			s.observe(identity, userAgent, "cooldown", updated.Fails, false)
			return "", &models.CooldownError{RetryAfter: updated.RetryAfter(s.nowFunc())}
		}

		s.observe(identity, userAgent, "invalid", updated.Fails, false)
		return "", models.ErrInvalidCredential
	}

	if err := s.ledger.Reset(ctx, identity); err != nil {
		// The credential was correct; a reset failure must not turn a
		// successful login into a rejection.
		s.logger.Error("failure ledger reset failed", slog.Any("error", err))
	}

	s.observe(identity, userAgent, "success", 0, true)
	return s.tokens.Issue(), nil
}

// recordFailure is best-effort: a ledger write failure is logged and the
// attempt still resolves to its rejection outcome.
func (s *LoginService) recordFailure(ctx context.Context, identity string) models.FailureRecord {
	rec, err := s.ledger.RecordFailure(ctx, identity)
	if err != nil {
		s.logger.Error("failed to record login failure", slog.Any("error", err))
		return models.FailureRecord{Identity: identity}
	}
	return rec
}

func (s *LoginService) observe(identity, userAgent, outcome string, fails int, success bool) {
	s.metrics.ObserveLogin(outcome)
	s.audit.LogLoginAttempt(pkglogger.AuditEvent{
		EventType:     "login_" + outcome,
		Identity:      identity,
		UserAgent:     userAgent,
		Success:       success,
		FailureReason: failureReason(outcome),
		Fails:         fails,
	})
}

func failureReason(outcome string) string {
	switch outcome {
	case "success":
		return ""
	case "cooldown":
		return "cooldown_active"
	case "challenge":
		return "challenge_failed"
	default:
		return "invalid_credential"
	}
}
