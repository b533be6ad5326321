package models

import "time"

// FailureRecord is the per-identity throttling state read from the ledger.
// NextAllowedAt and RequireChallenge are derived from Fails and UpdatedAt
// on every read; a row delete (reset) is the only way to clear them.
type FailureRecord struct {
	Identity         string
	Fails            int
	NextAllowedAt    *time.Time
	RequireChallenge bool
	UpdatedAt        time.Time
}

// Active reports whether the record currently blocks attempts.
func (r FailureRecord) Active(now time.Time) bool {
	return r.NextAllowedAt != nil && r.NextAllowedAt.After(now)
}

// RetryAfter returns the remaining cooldown at the given instant.
// Zero when no cooldown is active.
func (r FailureRecord) RetryAfter(now time.Time) time.Duration {
	if !r.Active(now) {
		return 0
	}
	return r.NextAllowedAt.Sub(now)
}
