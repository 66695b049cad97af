// Package redis provides Redis-backed stores
package redis

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/healthylife/server/internal/infrastructure/cache"
)

const defaultSummaryTTL = 7 * 24 * time.Hour

// SummaryStore keeps conversation summaries in Redis
type SummaryStore struct {
	client *cache.RedisClient
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewSummaryStore creates a store writing keys as <prefix>summary:<key>
func NewSummaryStore(client *cache.RedisClient, prefix string, ttl time.Duration, logger *zap.Logger) *SummaryStore {
	if ttl <= 0 {
		ttl = defaultSummaryTTL
	}
	return &SummaryStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.Named("summary-store"),
	}
}

// Get returns the summary for key, or "" when none is stored
func (s *SummaryStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.key(key))
	if errors.Is(err, cache.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		s.logger.Debug("Summary get failed", zap.String("key", key), zap.Error(err))
		return "", err
	}
	return v, nil
}

// Set replaces the summary for key and refreshes its TTL
func (s *SummaryStore) Set(ctx context.Context, key, summary string) error {
	if err := s.client.Set(ctx, s.key(key), summary, s.ttl); err != nil {
		s.logger.Error("Summary set failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (s *SummaryStore) key(k string) string {
	return s.prefix + "summary:" + k
}
