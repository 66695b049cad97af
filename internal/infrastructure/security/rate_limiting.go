package security

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/healthylife/server/internal/infrastructure/config"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitService keeps one token bucket per client key
type RateLimitService struct {
	logger   *zap.Logger
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewRateLimitService creates a limiter allowing cfg.RequestsPerMin per key
func NewRateLimitService(cfg config.RateLimitConfig, logger *zap.Logger) *RateLimitService {
	perMin := cfg.RequestsPerMin
	if perMin <= 0 {
		perMin = 30
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = 1
	}
	ttl := cfg.CleanupInterval
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	return &RateLimitService{
		logger:   logger.Named("rate-limit"),
		limit:    rate.Limit(float64(perMin) / 60.0),
		burst:    burst,
		idleTTL:  ttl,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

// Allow reports whether a request for key may proceed now
func (r *RateLimitService) Allow(key string) bool {
	r.mu.Lock()
	v, ok := r.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.visitors[key] = v
	}
	now := r.now()
	v.lastSeen = now
	r.mu.Unlock()

	allowed := v.limiter.AllowN(now, 1)
	if !allowed {
		r.logger.Debug("Rate limit exceeded", zap.String("key", key))
	}
	return allowed
}

// RetryAfter estimates how long key has to wait for the next token
func (r *RateLimitService) RetryAfter() time.Duration {
	if r.limit <= 0 {
		return time.Minute
	}
	return time.Duration(float64(time.Second) / float64(r.limit))
}

// Cleanup drops limiters idle for longer than the configured interval
func (r *RateLimitService) Cleanup() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idleTTL)
	removed := 0
	for key, v := range r.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(r.visitors, key)
			removed++
		}
	}
	return removed
}

// Run cleans up idle limiters until ctx is done
func (r *RateLimitService) Run(ctx context.Context) {
	ticker := time.NewTicker(r.idleTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Cleanup(); n > 0 {
				r.logger.Debug("Removed idle rate limiters", zap.Int("count", n))
			}
		}
	}
}
