package middleware

import (
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/auth"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/http/httperr"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/ratelimit"
)

// RateLimitMiddleware enforces limitPerMin requests per authenticated user.
// It must run after the auth middleware. A failing limiter lets the request
// through so that a Redis outage does not take the API down.
func RateLimitMiddleware(limiter ratelimit.Limiter, limitPerMin int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || limitPerMin <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := logger.GetLogger(ctx)

			p, ok := auth.GetPrincipal(ctx)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			d, err := limiter.Allow(ctx, p.ID, limitPerMin)
			if err != nil {
				log.Error(ctx, "rate limit check failed",
					logger.Module("ratelimit"),
					logger.Action("allow"),
					zap.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

			if !d.Allowed {
				trace.SpanFromContext(ctx).AddEvent("rate_limit_exceeded")
				log.Warn(ctx, "rate limit exceeded",
					logger.Module("ratelimit"),
					logger.Action("allow"),
					zap.Int("limit", limitPerMin),
				)

				retry := int(time.Until(d.ResetAt).Seconds())
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				httperr.WriteError(w, ctx, http.StatusTooManyRequests, httperr.ErrCodeRateLimited, "Too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
