package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/soundwave-agency/agency-server/internal/audit"
	apperrors "github.com/soundwave-agency/agency-server/internal/errors"
	"github.com/soundwave-agency/agency-server/internal/httputil"
	"github.com/soundwave-agency/agency-server/internal/metrics"
	"github.com/soundwave-agency/agency-server/internal/model"
	"github.com/soundwave-agency/agency-server/internal/redis"
)

// AttemptLimiter records one attempt under key. *service.RateLimiter
// satisfies it.
type AttemptLimiter interface {
	CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, resetAt time.Time)
}

// LoginRateLimitMiddleware caps login attempts per client IP and scope.
type LoginRateLimitMiddleware struct {
	limiter AttemptLimiter
	scope   model.Role
	limit   int
	window  time.Duration
}

func NewLoginRateLimitMiddleware(limiter AttemptLimiter, scope model.Role, limit int, window time.Duration) *LoginRateLimitMiddleware {
	return &LoginRateLimitMiddleware{
		limiter: limiter,
		scope:   scope,
		limit:   limit,
		window:  window,
	}
}

func (m *LoginRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		ip := audit.ClientIP(r)
		allowed, resetAt := m.limiter.CheckLimit(r.Context(), redis.LoginAttemptsKey(string(m.scope), ip), m.limit, m.window)
		if !allowed {
			err := apperrors.RateLimitExceeded()
			metrics.ObserveLogin(string(m.scope), err)
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventRateLimitExceed,
				Role:    string(m.scope),
				Details: map[string]interface{}{"limit": m.limit},
			})

			secondsLeft := int(time.Until(resetAt).Seconds()) + 1
			if secondsLeft < 1 {
				secondsLeft = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secondsLeft))
			httputil.WriteError(w, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}
