package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/BradenHooton/traingate/internal/database"
	"github.com/BradenHooton/traingate/internal/models"
	"github.com/jackc/pgx/v5"
)

// LedgerRepository handles database operations for the per-identity
// failure ledger. One row per client identity; rows expire after the
// retention window and expired rows are treated as absent.
type LedgerRepository struct {
	db *database.DB
}

// NewLedgerRepository creates a new LedgerRepository
func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Get returns the live ledger row for an identity, or models.ErrNotFound
// when no row exists or the row has expired.
func (r *LedgerRepository) Get(ctx context.Context, identity string) (*models.FailureRecord, error) {
	query := `
		SELECT fails, updated_at FROM login_throttle
		WHERE identity = $1 AND expires_at > now()
	`

	rec := &models.FailureRecord{Identity: identity}
	err := r.db.Pool.QueryRow(ctx, query, identity).Scan(&rec.Fails, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return rec, nil
}

// Increment bumps the failure count for an identity in a single atomic
// statement and refreshes the retention window. An expired row restarts
// at one failure. Concurrent increments for the same identity serialize
// on the row, so the count never under-reports.
func (r *LedgerRepository) Increment(ctx context.Context, identity string, retention time.Duration) (*models.FailureRecord, error) {
	query := `
		INSERT INTO login_throttle (identity, fails, updated_at, expires_at)
		VALUES ($1, 1, now(), now() + make_interval(secs => $2))
		ON CONFLICT (identity) DO UPDATE SET
			fails = CASE
				WHEN login_throttle.expires_at <= now() THEN 1
				ELSE login_throttle.fails + 1
			END,
			updated_at = now(),
			expires_at = now() + make_interval(secs => $2)
		RETURNING fails, updated_at
	`

	rec := &models.FailureRecord{Identity: identity}
	err := r.db.Pool.QueryRow(ctx, query, identity, retention.Seconds()).Scan(&rec.Fails, &rec.UpdatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return rec, nil
}

// Delete removes the ledger row for an identity. Missing rows are not an
// error; a successful login against a clean ledger is the common case.
func (r *LedgerRepository) Delete(ctx context.Context, identity string) error {
	query := `DELETE FROM login_throttle WHERE identity = $1`
	_, err := r.db.Pool.Exec(ctx, query, identity)
	return database.MapPostgresError(err)
}

// DeleteExpired removes ledger rows past their retention window and
// returns the number of rows purged.
func (r *LedgerRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM login_throttle WHERE expires_at <= now()`
	tag, err := r.db.Pool.Exec(ctx, query)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return tag.RowsAffected(), nil
}
