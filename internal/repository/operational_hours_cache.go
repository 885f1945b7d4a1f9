package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

const activeOperationalHoursKey = "sla:operational-hours:active"

// RedisKV is the slice of the go-redis client the cache needs.
type RedisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CachedOperationalHoursRepository reads through Redis. Cache failures degrade to the
// underlying repository and are only logged.
type CachedOperationalHoursRepository struct {
	next   OperationalHoursRepository
	client RedisKV
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedOperationalHoursRepository wraps next. A nil client or non-positive ttl disables caching.
func NewCachedOperationalHoursRepository(next OperationalHoursRepository, client RedisKV, ttl time.Duration, logger *zap.Logger) *CachedOperationalHoursRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedOperationalHoursRepository{next: next, client: client, ttl: ttl, logger: logger}
}

func (r *CachedOperationalHoursRepository) GetActive(ctx context.Context) (*domain.OperationalHoursConfig, error) {
	if !r.enabled() {
		return r.next.GetActive(ctx)
	}

	raw, err := r.client.Get(ctx, activeOperationalHoursKey).Bytes()
	switch {
	case err == nil:
		var cfg domain.OperationalHoursConfig
		jsonErr := json.Unmarshal(raw, &cfg)
		if jsonErr == nil {
			return &cfg, nil
		}
		r.logger.Warn("discarding undecodable operational hours cache entry", zap.Error(jsonErr))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("operational hours cache read failed", zap.Error(err))
	}

	cfg, err := r.next.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(cfg)
	if err != nil {
		r.logger.Warn("operational hours cache encode failed", zap.Error(err))
		return cfg, nil
	}
	if err := r.client.Set(ctx, activeOperationalHoursKey, payload, r.ttl).Err(); err != nil {
		r.logger.Warn("operational hours cache write failed", zap.Error(err))
	}
	return cfg, nil
}

// Invalidate drops the cached configuration.
func (r *CachedOperationalHoursRepository) Invalidate(ctx context.Context) error {
	if !r.enabled() {
		return nil
	}
	return r.client.Del(ctx, activeOperationalHoursKey).Err()
}

func (r *CachedOperationalHoursRepository) enabled() bool {
	return r.client != nil && r.ttl > 0
}
