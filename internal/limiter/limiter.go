// Package limiter defines interfaces and implementations for throttling
// abusive registration attempts.
package limiter

import (
	"context"
	"time"
)

// Limiter controls register attempts and temporary lockouts per (fqdn, ip).
type Limiter interface {
	// Allow reports whether registration is currently allowed and optional retry-after.
	Allow(ctx context.Context, fqdn string, ipHash []byte) (bool, time.Duration, error)
	// Success resets counters after a successful registration.
	Success(ctx context.Context, fqdn string, ipHash []byte) error
	// Failure records a failed attempt; may place a temporary block.
	Failure(ctx context.Context, fqdn string, ipHash []byte) (bool, time.Duration, error)
}
