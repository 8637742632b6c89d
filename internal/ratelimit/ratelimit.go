// Package ratelimit limits requests per authenticated user. The Redis
// limiter is shared by every replica; the local limiter is used when no
// Redis is configured.
package ratelimit

import (
	"context"
	"time"
)

// Window is the period limits are expressed over.
const Window = time.Minute

// Decision is the outcome of a single check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type Limiter interface {
	Allow(ctx context.Context, key string, limit int) (Decision, error)
}

// Observer is told about every rejected request.
type Observer interface {
	ObserveRateLimitRejection()
}
