package utils

import "time"

type ReconnectStrategy interface {
	NextDelay() time.Duration
	Reset()
}

// ExponentialBackoff doubles the delay after every attempt: the n-th call
// to NextDelay (counting from zero) returns base * 2^n, capped at max.
type ExponentialBackoff struct {
	base         time.Duration
	currentDelay time.Duration
	maxDelay     time.Duration
}

// NewExponentialBackoff builds a strategy starting at base. Non-positive
// arguments fall back to 1s base and 30s cap.
func NewExponentialBackoff(base, max time.Duration) *ExponentialBackoff {
	if base <= 0 {
		base = 1 * time.Second
	}
	if max <= 0 {
		max = 30 * time.Second
	}
	return &ExponentialBackoff{
		base:         base,
		currentDelay: base,
		maxDelay:     max,
	}
}

func (e *ExponentialBackoff) NextDelay() time.Duration {
	delay := e.currentDelay
	if delay > e.maxDelay {
		delay = e.maxDelay
	}
	e.currentDelay *= 2
	if e.currentDelay > e.maxDelay {
		e.currentDelay = e.maxDelay
	}
	return delay
}

func (e *ExponentialBackoff) Reset() {
	e.currentDelay = e.base
}
