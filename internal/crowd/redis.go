package crowd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/iwvelando/park-planner/internal/metrics"
	"github.com/iwvelando/park-planner/pkg/constants"
	"github.com/iwvelando/park-planner/pkg/datetime"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// absentMarker caches a confirmed "no forecast" answer.
const absentMarker = "none"

// RedisOptions configures a RedisCache.
type RedisOptions struct {
	URL    string
	TTL    time.Duration
	Prefix string
}

// RedisCache is a read-through cache in front of another Source. Cache
// failures are logged and bypassed; they never fail a lookup.
type RedisCache struct {
	rdb    *redis.Client
	next   Source
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// NewRedisCache connects to the Redis instance at opts.URL and wraps next.
func NewRedisCache(logger *zap.Logger, next Source, opts RedisOptions) (*RedisCache, error) {
	if next == nil {
		return nil, fmt.Errorf("redis cache requires an underlying source")
	}
	opt, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewRedisCacheWithClient(logger, redis.NewClient(opt), next, opts), nil
}

// NewRedisCacheWithClient wraps next using an existing client.
func NewRedisCacheWithClient(logger *zap.Logger, rdb *redis.Client, next Source, opts RedisOptions) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = constants.DefaultCacheTTL
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = constants.DefaultCachePrefix
	}
	return &RedisCache{rdb: rdb, next: next, ttl: ttl, prefix: prefix, logger: logger}
}

// CrowdLevel implements Source.
func (c *RedisCache) CrowdLevel(ctx context.Context, destinationID string, date time.Time) (float64, bool, error) {
	key := c.key(destinationID, date)

	cached, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		if score, found, ok := decodeCached(cached); ok {
			metrics.ForecastCache.WithLabelValues("hit").Inc()
			return score, found, nil
		}
		c.logger.Debug("ignoring malformed cached crowd value",
			zap.String("op", "crowd.RedisCache.CrowdLevel"),
			zap.String("key", key),
			zap.String("value", cached),
		)
		metrics.ForecastCache.WithLabelValues("miss").Inc()
	case errors.Is(err, redis.Nil):
		metrics.ForecastCache.WithLabelValues("miss").Inc()
	default:
		metrics.ForecastCache.WithLabelValues("error").Inc()
		c.logger.Debug("crowd cache read failed",
			zap.String("op", "crowd.RedisCache.CrowdLevel"),
			zap.String("key", key),
			zap.Error(err),
		)
	}

	score, found, err := c.next.CrowdLevel(ctx, destinationID, date)
	if err != nil {
		return 0, false, err
	}

	value := absentMarker
	if found {
		value = strconv.FormatFloat(score, 'f', -1, 64)
	}
	if setErr := c.rdb.Set(ctx, key, value, c.ttl).Err(); setErr != nil {
		c.logger.Debug("crowd cache write failed",
			zap.String("op", "crowd.RedisCache.CrowdLevel"),
			zap.String("key", key),
			zap.Error(setErr),
		)
	}
	return score, found, nil
}

// ForecastDestinations implements DestinationLister by delegating to the
// wrapped source. A source that cannot enumerate yields no destinations.
func (c *RedisCache) ForecastDestinations(ctx context.Context, from, to time.Time) ([]string, error) {
	lister, ok := c.next.(DestinationLister)
	if !ok {
		return nil, nil
	}
	return lister.ForecastDestinations(ctx, from, to)
}

// Close releases the Redis connection pool.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

func (c *RedisCache) key(destinationID string, date time.Time) string {
	return c.prefix + ":" + destinationID + ":" + datetime.FormatDate(date)
}

func decodeCached(value string) (score float64, found bool, ok bool) {
	if value == absentMarker {
		return 0, false, true
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false, false
	}
	return v, true, true
}
