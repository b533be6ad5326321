package models

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Login outcomes
	ErrInvalidCredential = errors.New("invalid credential")
	ErrChallengeFailed   = errors.New("challenge verification failed")
)

// CooldownError rejects a login attempt while an escalation cooldown is
// active. RetryAfter is the remaining wait at the time of rejection.
type CooldownError struct {
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active, retry after %s", e.RetryAfter)
}

// RetryAfterSeconds rounds up so a client that waits the advertised time
// is never rejected again.
func (e *CooldownError) RetryAfterSeconds() int {
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
