// Package limiter throttles login attempts per (login, source IP) pair.
package limiter

import (
	"context"
	"time"
)

// Limiter gates login attempts and applies temporary lockouts. The login key
// is free-form; callers scope it however collisions should be shared (here,
// "tenant-slug/email").
type Limiter interface {
	// Allow reports whether an attempt may proceed, with a retry-after hint
	// when it may not.
	Allow(ctx context.Context, login string, ipHash []byte) (bool, time.Duration, error)
	// Success clears the failure counter after a successful login.
	Success(ctx context.Context, login string, ipHash []byte) error
	// Failure records a failed attempt and reports whether the pair is now
	// blocked and for how long.
	Failure(ctx context.Context, login string, ipHash []byte) (bool, time.Duration, error)
}
