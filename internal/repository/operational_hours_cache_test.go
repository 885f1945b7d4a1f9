package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

type fakeKV struct {
	data    map[string]string
	ttl     time.Duration
	failGet bool
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}}
}

func (f *fakeKV) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.failGet {
		return redis.NewStringResult("", errors.New("connection refused"))
	}
	val, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(val, nil)
}

func (f *fakeKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttl = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeKV) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(f.data, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

type countingRepo struct {
	cfg   *domain.OperationalHoursConfig
	err   error
	calls int
}

func (c *countingRepo) GetActive(context.Context) (*domain.OperationalHoursConfig, error) {
	c.calls++
	return c.cfg, c.err
}

func sampleConfig(t *testing.T) *domain.OperationalHoursConfig {
	t.Helper()
	cfg, err := ParseCalendar([]byte(sampleCalendar))
	require.NoError(t, err)
	cfg.ID = 3
	return cfg
}

func TestCachedRepositoryReadsThrough(t *testing.T) {
	kv := newFakeKV()
	next := &countingRepo{cfg: sampleConfig(t)}
	repo := NewCachedOperationalHoursRepository(next, kv, time.Minute, zap.NewNop())
	ctx := context.Background()

	first, err := repo.GetActive(ctx)
	require.NoError(t, err)
	second, err := repo.GetActive(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, time.Minute, kv.ttl)
	assert.Equal(t, first.ExclusionRules, second.ExclusionRules)
	assert.Equal(t, first.WorkingDays, second.WorkingDays)
	assert.Equal(t, int64(3), second.ID)

	require.NoError(t, repo.Invalidate(ctx))
	_, err = repo.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedRepositoryDegradesOnRedisFailure(t *testing.T) {
	kv := newFakeKV()
	kv.failGet = true
	next := &countingRepo{cfg: sampleConfig(t)}
	repo := NewCachedOperationalHoursRepository(next, kv, time.Minute, nil)

	cfg, err := repo.GetActive(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, 1, next.calls)
}

func TestCachedRepositoryDoesNotCacheMissingConfig(t *testing.T) {
	kv := newFakeKV()
	next := &countingRepo{err: domain.ErrConfigurationMissing}
	repo := NewCachedOperationalHoursRepository(next, kv, time.Minute, nil)

	_, err := repo.GetActive(context.Background())
	assert.ErrorIs(t, err, domain.ErrConfigurationMissing)
	assert.Empty(t, kv.data)
}

func TestCachedRepositoryDisabled(t *testing.T) {
	next := &countingRepo{cfg: sampleConfig(t)}
	repo := NewCachedOperationalHoursRepository(next, nil, time.Minute, nil)

	for i := 0; i < 3; i++ {
		_, err := repo.GetActive(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, next.calls)
	assert.NoError(t, repo.Invalidate(context.Background()))
}
