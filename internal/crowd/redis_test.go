package crowd

import (
	"context"
	"testing"
	"time"

	"github.com/iwvelando/park-planner/pkg/datetime"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestRedisCacheFallsThroughWhenUnavailable(t *testing.T) {
	day := datetime.MustParseDate("2025-03-02")
	calls := 0
	next := SourceFunc(func(ctx context.Context, dest string, date time.Time) (float64, bool, error) {
		calls++
		return 7, true, nil
	})

	cache := NewRedisCacheWithClient(nil, unreachableRedis(), next, RedisOptions{})
	t.Cleanup(func() { _ = cache.Close() })

	v, found, err := cache.CrowdLevel(context.Background(), "epcot", day)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 7.0, v)
	assert.Equal(t, 1, calls)
}

func TestRedisCacheKeyAndDecode(t *testing.T) {
	cache := NewRedisCacheWithClient(nil, unreachableRedis(), SourceFunc(nil), RedisOptions{Prefix: "crowd-test"})
	t.Cleanup(func() { _ = cache.Close() })

	assert.Equal(t, "crowd-test:epcot:2025-03-02", cache.key("epcot", datetime.MustParseDate("2025-03-02T10:00:00")))

	score, found, ok := decodeCached("4.25")
	assert.True(t, ok)
	assert.True(t, found)
	assert.Equal(t, 4.25, score)

	_, found, ok = decodeCached(absentMarker)
	assert.True(t, ok)
	assert.False(t, found)

	_, _, ok = decodeCached("lots")
	assert.False(t, ok)
}

func TestNewRedisCacheValidation(t *testing.T) {
	_, err := NewRedisCache(nil, nil, RedisOptions{URL: "redis://localhost:6379/0"})
	assert.Error(t, err)

	_, err = NewRedisCache(nil, NewStaticSource(nil), RedisOptions{URL: "::not a url::"})
	assert.Error(t, err)
}

func TestRedisCacheListsWrappedDestinations(t *testing.T) {
	day := datetime.MustParseDate("2025-03-02")
	static := NewStaticSource([]Entry{{DestinationID: "epcot", Date: day, CrowdLevel: 4}})

	cache := NewRedisCacheWithClient(nil, unreachableRedis(), static, RedisOptions{})
	t.Cleanup(func() { _ = cache.Close() })
	ids, err := cache.ForecastDestinations(context.Background(), day, day)
	require.NoError(t, err)
	assert.Equal(t, []string{"epcot"}, ids)

	opaque := NewRedisCacheWithClient(nil, unreachableRedis(), SourceFunc(func(ctx context.Context, dest string, date time.Time) (float64, bool, error) {
		return 0, false, nil
	}), RedisOptions{})
	t.Cleanup(func() { _ = opaque.Close() })
	ids, err = opaque.ForecastDestinations(context.Background(), day, day)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
