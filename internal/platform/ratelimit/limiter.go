package ratelimit

import (
	"context"
	"time"
)

// Limiter is a keyed counter with a TTL window. Backed by a shared store so
// limits hold across horizontally scaled instances, not just one process.
type Limiter interface {
	// Allow records one hit for key and reports whether it is within the
	// configured limit for the current window.
	Allow(ctx context.Context, key string) (bool, error)
}

// Config describes a fixed-window limit: at most Requests hits per Window.
type Config struct {
	Requests int
	Window   time.Duration
}
