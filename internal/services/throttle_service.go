package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/BradenHooton/traingate/internal/models"
	pkglogger "github.com/BradenHooton/traingate/pkg/logger"
)

// LedgerRepository defines the interface for failure-ledger persistence
type LedgerRepository interface {
	Get(ctx context.Context, identity string) (*models.FailureRecord, error)
	Increment(ctx context.Context, identity string, retention time.Duration) (*models.FailureRecord, error)
	Delete(ctx context.Context, identity string) error
}

// ThrottleConfig holds configuration for escalation behavior
type ThrottleConfig struct {
	Retention time.Duration // How long an untouched ledger row survives
}

// ThrottleService maintains the per-identity failure ledger and applies
// the escalation tier table. Cooldown and challenge requirements are pure
// functions of the stored failure count and last-write time, recomputed on
// every read; deleting the row (reset) is the only way to clear them.
type ThrottleService struct {
	repo   LedgerRepository
	config ThrottleConfig
	logger *slog.Logger
}

// NewThrottleService creates a new ThrottleService
func NewThrottleService(repo LedgerRepository, config ThrottleConfig, logger *slog.Logger) *ThrottleService {
	return &ThrottleService{
		repo:   repo,
		config: config,
		logger: logger,
	}
}

// Read returns the current record for an identity. Absent or expired rows
// read as the zero record: no failures, no cooldown, no challenge.
func (s *ThrottleService) Read(ctx context.Context, identity string) (models.FailureRecord, error) {
	rec, err := s.repo.Get(ctx, identity)
	if errors.Is(err, models.ErrNotFound) {
		return models.FailureRecord{Identity: identity}, nil
	}
	if err != nil {
		return models.FailureRecord{}, err
	}

	return s.derive(*rec), nil
}

// RecordFailure increments the failure count, refreshes retention, and
// returns the post-increment record with its tier applied.
func (s *ThrottleService) RecordFailure(ctx context.Context, identity string) (models.FailureRecord, error) {
	rec, err := s.repo.Increment(ctx, identity, s.config.Retention)
	if err != nil {
		return models.FailureRecord{}, err
	}

	derived := s.derive(*rec)

	if derived.NextAllowedAt != nil {
		s.logger.Warn("identity entered cooldown",
			slog.String("identity", pkglogger.SanitizedIdentity(identity)),
			slog.Int("fails", derived.Fails),
			slog.Time("next_allowed_at", *derived.NextAllowedAt),
			slog.Bool("require_challenge", derived.RequireChallenge))
	}

	return derived, nil
}

// Reset clears the ledger for an identity after a successful login.
func (s *ThrottleService) Reset(ctx context.Context, identity string) error {
	return s.repo.Delete(ctx, identity)
}

// derive applies the tier table to a stored row.
func (s *ThrottleService) derive(rec models.FailureRecord) models.FailureRecord {
	cooldown, challenge := tierFor(rec.Fails)
	rec.RequireChallenge = challenge
	if cooldown > 0 {
		next := rec.UpdatedAt.Add(cooldown)
		rec.NextAllowedAt = &next
	}
	return rec
}

// tierFor maps a consecutive-failure count to its cooldown and challenge
// requirement. The first three misses stay free so human typos never hit
// friction; the challenge kicks in where sustained automation is the
// plausible explanation.
func tierFor(fails int) (cooldown time.Duration, requireChallenge bool) {
	switch {
	case fails <= 3:
		return 0, false
	case fails <= 5:
		return 5 * time.Second, false
	case fails <= 7:
		return 15 * time.Second, false
	case fails <= 9:
		return 60 * time.Second, true
	case fails <= 11:
		return 300 * time.Second, true
	default:
		return 3600 * time.Second, true
	}
}
