package extract

import (
	"time"

	"github.com/takumif/regtrawl/internal/fetch"
)

// itemState tracks one target through the extraction attempt loop.
type itemState int

const (
	statePending itemState = iota
	stateInProgress
	stateRetrying
	stateSuccess
	stateFailedPermanent
)

func (s itemState) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateInProgress:
		return "in_progress"
	case stateRetrying:
		return "retrying"
	case stateSuccess:
		return "success"
	case stateFailedPermanent:
		return "failed_permanent"
	default:
		return "unknown"
	}
}

// Policy controls how extraction failures are retried.
type Policy struct {
	// MaxAttempts is the total number of tries per target, first attempt
	// included.
	MaxAttempts int
	// BaseDelay is the wait after the first failed attempt; each further
	// failure doubles it.
	BaseDelay time.Duration
	// MaxDelay caps the doubling.
	MaxDelay time.Duration
	// RateLimitFloor is the minimum wait after a rate-limit response,
	// applied even when the exponential schedule would wait less.
	RateLimitFloor time.Duration
}

// Backoff returns how long to wait before retry number attempt+1.
// attempt is zero-based: the attempt that just failed.
func (p Policy) Backoff(kind fetch.Kind, attempt int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			d = p.MaxDelay
			break
		}
	}
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	if kind == fetch.KindRateLimited && d < p.RateLimitFloor {
		d = p.RateLimitFloor
	}
	return d
}

// Exhausted reports whether the attempt that just failed (zero-based) was
// the last one allowed.
func (p Policy) Exhausted(attempt int) bool {
	return attempt+1 >= p.MaxAttempts
}

// Terminal reports whether a failure of the given kind at the given
// zero-based attempt ends the attempt loop: either the error is not
// retryable or the budget is spent.
func (p Policy) Terminal(kind fetch.Kind, attempt int) bool {
	return !kind.Retryable() || p.Exhausted(attempt)
}
