package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/yixianOu/moviestore/internal/biz"
	"github.com/yixianOu/moviestore/internal/pkg/metrics"
)

const (
	breakerFailureThreshold = 5
	breakerOpenTimeout      = 30 * time.Second
	scanBatchSize           = 100
)

type movieCache struct {
	rdb *redis.Client
	ttl time.Duration
	cb  *gobreaker.CircuitBreaker[interface{}]
	log *log.Helper
}

// NewMovieCache creates the redis-backed cache. Calls fail fast with
// biz.ErrCacheUnavailable while the breaker is open or when redis is not
// configured.
func NewMovieCache(data *Data, logger log.Logger) biz.MovieCache {
	l := log.NewHelper(logger)
	return &movieCache{
		rdb: data.rdb,
		ttl: data.ttl,
		cb:  newCacheBreaker(l),
		log: l,
	}
}

func newCacheBreaker(l *log.Helper) *gobreaker.CircuitBreaker[interface{}] {
	return gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        "redis",
		MaxRequests: 1,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warnf("circuit breaker %s: %s -> %s", name, from, to)
		},
	})
}

// do runs fn through the breaker and maps every backend failure to
// biz.ErrCacheUnavailable. redis.Nil passes through untouched.
func (c *movieCache) do(op string, fn func() (interface{}, error)) (interface{}, error) {
	if c.rdb == nil {
		metrics.CacheOperations.WithLabelValues(op, "unavailable").Inc()
		return nil, fmt.Errorf("%w: redis not configured", biz.ErrCacheUnavailable)
	}
	v, err := c.cb.Execute(fn)
	switch {
	case err == nil:
		return v, nil
	case errors.Is(err, redis.Nil):
		return nil, err
	default:
		metrics.CacheOperations.WithLabelValues(op, "unavailable").Inc()
		return nil, fmt.Errorf("%w: %s: %v", biz.ErrCacheUnavailable, op, err)
	}
}

func (c *movieCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	v, err := c.do("get", func() (interface{}, error) {
		return c.rdb.Get(ctx, key).Bytes()
	})
	if errors.Is(err, redis.Nil) {
		metrics.CacheOperations.WithLabelValues("get", "miss").Inc()
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(v.([]byte), dest); err != nil {
		metrics.CacheOperations.WithLabelValues("get", "corrupt").Inc()
		return false, fmt.Errorf("%w: key %s: %v", biz.ErrCacheCorrupt, key, err)
	}
	metrics.CacheOperations.WithLabelValues("get", "hit").Inc()
	return true, nil
}

func (c *movieCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	if _, err := c.do("set", func() (interface{}, error) {
		return nil, c.rdb.Set(ctx, key, raw, ttl).Err()
	}); err != nil {
		return err
	}
	metrics.CacheOperations.WithLabelValues("set", "ok").Inc()
	return nil
}

func (c *movieCache) Delete(ctx context.Context, key string) (bool, error) {
	v, err := c.do("delete", func() (interface{}, error) {
		return c.rdb.Del(ctx, key).Result()
	})
	if err != nil {
		return false, err
	}
	metrics.CacheOperations.WithLabelValues("delete", "ok").Inc()
	return v.(int64) > 0, nil
}

// InvalidatePattern deletes every key matching a glob pattern. It walks the
// keyspace with SCAN so redis is never blocked by KEYS.
func (c *movieCache) InvalidatePattern(ctx context.Context, pattern string) (int64, error) {
	v, err := c.do("invalidate", func() (interface{}, error) {
		var (
			cursor  uint64
			deleted int64
		)
		for {
			keys, next, err := c.rdb.Scan(ctx, cursor, pattern, scanBatchSize).Result()
			if err != nil {
				return deleted, err
			}
			if len(keys) > 0 {
				n, err := c.rdb.Del(ctx, keys...).Result()
				if err != nil {
					return deleted, err
				}
				deleted += n
			}
			cursor = next
			if cursor == 0 {
				return deleted, nil
			}
		}
	})
	if err != nil {
		return 0, err
	}
	metrics.CacheOperations.WithLabelValues("invalidate", "ok").Inc()
	return v.(int64), nil
}

func (c *movieCache) Ping(ctx context.Context) error {
	if c.rdb == nil {
		return fmt.Errorf("%w: redis not configured", biz.ErrCacheUnavailable)
	}
	// Health checks bypass the breaker so an open circuit cannot hide recovery.
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping: %v", biz.ErrCacheUnavailable, err)
	}
	return nil
}
