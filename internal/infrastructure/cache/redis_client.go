// Package cache provides the Redis connection used for conversation summaries
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/healthylife/server/internal/infrastructure/config"
)

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrCircuitOpen = errors.New("redis circuit breaker is open")
)

// RedisClient wraps a go-redis client with a circuit breaker
type RedisClient struct {
	client  redis.UniversalClient
	config  *config.RedisConfig
	logger  *zap.Logger
	breaker *CircuitBreaker
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg *config.RedisConfig, logger *zap.Logger) (*RedisClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Password:     cfg.Password,
		DB:           cfg.Database,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	r := NewRedisClientFrom(client, cfg, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis client initialized successfully",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.Int("database", cfg.Database))
	return r, nil
}

// NewRedisClientFrom wraps an existing client
func NewRedisClientFrom(client redis.UniversalClient, cfg *config.RedisConfig, logger *zap.Logger) *RedisClient {
	return &RedisClient{
		client:  client,
		config:  cfg,
		logger:  logger.Named("redis"),
		breaker: NewCircuitBreaker(5, 30*time.Second),
	}
}

// Ping tests Redis connection
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.do(func() error { return r.client.Ping(ctx).Err() })
}

// Get retrieves a value. A missing key returns ErrKeyNotFound.
func (r *RedisClient) Get(ctx context.Context, key string) (string, error) {
	var out string
	err := r.do(func() error {
		v, err := r.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return ErrKeyNotFound
		}
		out = v
		return err
	})
	return out, err
}

// Set stores a value with TTL; zero TTL keeps it forever
func (r *RedisClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.do(func() error { return r.client.Set(ctx, key, value, ttl).Err() })
}

// Close closes the connection pool
func (r *RedisClient) Close() error {
	return r.client.Close()
}

func (r *RedisClient) do(op func() error) error {
	if !r.breaker.AllowRequest() {
		return ErrCircuitOpen
	}

	err := op()
	switch {
	case err == nil, errors.Is(err, ErrKeyNotFound):
		r.breaker.RecordSuccess()
		return err
	default:
		r.breaker.RecordFailure()
		r.logger.Warn("Redis command failed", zap.Error(err))
		return err
	}
}

// CircuitState represents circuit breaker states
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

// CircuitBreaker stops calling Redis after repeated failures
type CircuitBreaker struct {
	maxFailures     int
	timeout         time.Duration
	failures        int
	lastFailureTime time.Time
	state           CircuitState
	now             func() time.Time
	mu              sync.Mutex
}

// NewCircuitBreaker opens after maxFailures consecutive failures and
// half-opens once timeout has passed
func NewCircuitBreaker(maxFailures int, timeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{maxFailures: maxFailures, timeout: timeout, now: time.Now}
}

// AllowRequest checks if requests are allowed based on circuit state
func (cb *CircuitBreaker) AllowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitOpen {
		if cb.now().Sub(cb.lastFailureTime) <= cb.timeout {
			return false
		}
		cb.state = CircuitHalfOpen
	}
	return true
}

// RecordSuccess records a successful operation
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.state = CircuitClosed
}

// RecordFailure records a failed operation
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailureTime = cb.now()
	if cb.failures >= cb.maxFailures || cb.state == CircuitHalfOpen {
		cb.state = CircuitOpen
	}
}

// State returns the current state
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
