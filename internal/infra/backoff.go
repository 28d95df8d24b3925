package infra

import (
	"time"
)

const (
	// Defaults for the reconnect schedule when the config leaves them zero.
	DefaultBaseDelay = 1 * time.Second
	DefaultMaxDelay  = 60 * time.Second
)

// CalculateBackoff returns the exponential backoff duration for a given
// retry count: base * 2^retry, capped at max.
// If retry is negative, it returns base.
func CalculateBackoff(retry int, base, max time.Duration) time.Duration {
	if base <= 0 {
		base = DefaultBaseDelay
	}
	if max <= 0 {
		max = DefaultMaxDelay
	}
	if retry < 0 {
		return base
	}

	// 2^30 seconds already dwarfs any sane cap; shift no further to avoid
	// overflowing the duration.
	if retry > 30 {
		return max
	}

	backoff := base * time.Duration(1<<retry)
	if backoff > max || backoff < 0 {
		return max
	}
	return backoff
}
