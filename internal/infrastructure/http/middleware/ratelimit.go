package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/healthylife/server/internal/infrastructure/security"
	apperrors "github.com/healthylife/server/pkg/errors"
)

// RateLimit rejects clients that exceed the limiter's rate. Clients are
// keyed by authenticated user, else by remote address (set by RealIP).
func RateLimit(limiter *security.RateLimitService) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + ClientIP(r)
			if id, ok := GetUserIDFromContext(r.Context()); ok {
				key = "user:" + id.String()
			}

			if !limiter.Allow(key) {
				retry := int(math.Ceil(limiter.RetryAfter().Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				writeError(w, r, apperrors.NewAppError(apperrors.CodeTooManyRequests,
					"Too many requests, please slow down", "").WithMetadata("retry_after", retry))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the request's remote address without the port. RealIP
// may already have replaced it with a bare IP.
func ClientIP(r *http.Request) string {
	addr := r.RemoteAddr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
