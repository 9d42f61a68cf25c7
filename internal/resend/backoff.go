package resend

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Backoff strategies.
const (
	StrategyFixed       = "fixed"
	StrategyExponential = "exponential"
)

// NewBackOff returns the delay policy applied after a failure. Fixed waits
// delay every time. Exponential starts at delay and doubles up to max; the
// loop resets it after every successful send.
func NewBackOff(strategy string, delay, max time.Duration) backoff.BackOff {
	if strategy != StrategyExponential {
		return backoff.NewConstantBackOff(delay)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = delay
	b.MaxInterval = max
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.Reset()
	return b
}
