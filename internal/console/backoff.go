package console

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultPollBaseDelay = 500 * time.Millisecond
	DefaultPollMaxDelay  = 30 * time.Second
)

// pollBackoff doubles the retry delay after each consecutive poll failure,
// capped at max, and returns to base after a success. The delay is doubled
// before the wait, so the first failure after a success waits 2*base.
type pollBackoff struct {
	b *backoff.ExponentialBackOff
}

func newPollBackoff(base, max time.Duration) *pollBackoff {
	if base <= 0 {
		base = DefaultPollBaseDelay
	}
	if max < base {
		max = base
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = min(2*base, max)
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = max
	b.MaxElapsedTime = 0
	b.Reset()
	return &pollBackoff{b: b}
}

// Failure records a failed poll and returns how long to wait before the next one.
func (p *pollBackoff) Failure() time.Duration {
	return p.b.NextBackOff()
}

// Success resets the delay to its base value.
func (p *pollBackoff) Success() {
	p.b.Reset()
}
