package crowd

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iwvelando/park-planner/pkg/datetime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGatewayFetchDegradesFailuresToGaps(t *testing.T) {
	day := datetime.MustParseDate("2025-03-02")
	source := SourceFunc(func(ctx context.Context, dest string, date time.Time) (float64, bool, error) {
		switch dest {
		case "epcot":
			return 3, true, nil
		case "animal-kingdom":
			return 0, false, nil
		case "hollywood-studios":
			return 0, false, errors.New("upstream 503")
		case "magic-kingdom":
			return 14, true, nil
		}
		return 0, false, nil
	})

	g := NewGateway(zap.NewNop(), source, Options{Concurrency: 2, LookupTimeout: time.Second})
	keys := CrossKeys([]string{"magic-kingdom", "epcot", "hollywood-studios", "animal-kingdom"}, []time.Time{day})
	keys = append(keys, NewKey("epcot", day), NewKey("", day))

	forecast, gaps := g.Fetch(context.Background(), keys)

	v, ok := forecast.Lookup("epcot", day)
	require.True(t, ok)
	assert.Equal(t, 3.0, v)

	v, ok = forecast.Lookup("magic-kingdom", day)
	require.True(t, ok)
	assert.Equal(t, 10.0, v, "scores above the scale are clamped")

	require.Len(t, gaps, 2)
	assert.Equal(t, "animal-kingdom", gaps[0].Key.DestinationID)
	assert.NoError(t, gaps[0].Err, "absence is not an error")
	assert.Equal(t, "hollywood-studios", gaps[1].Key.DestinationID)
	assert.Error(t, gaps[1].Err)
	assert.Equal(t, 2, forecast.Len())
}

func TestGatewayLookupTimeout(t *testing.T) {
	source := SourceFunc(func(ctx context.Context, dest string, date time.Time) (float64, bool, error) {
		<-ctx.Done()
		return 0, false, ctx.Err()
	})
	g := NewGateway(nil, source, Options{LookupTimeout: 20 * time.Millisecond})

	start := time.Now()
	forecast, gaps := g.Fetch(context.Background(), []Key{NewKey("epcot", datetime.MustParseDate("2025-03-02"))})

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 0, forecast.Len())
	require.Len(t, gaps, 1)
	assert.ErrorIs(t, gaps[0].Err, context.DeadlineExceeded)
}

func TestGatewayRespectsConcurrencyLimit(t *testing.T) {
	var inFlight, peak int32
	source := SourceFunc(func(ctx context.Context, dest string, date time.Time) (float64, bool, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return 5, true, nil
	})
	g := NewGateway(nil, source, Options{Concurrency: 3})

	var dates []time.Time
	for i := 1; i <= 10; i++ {
		dates = append(dates, time.Date(2025, 3, i, 0, 0, 0, 0, time.UTC))
	}
	forecast, gaps := g.Fetch(context.Background(), CrossKeys([]string{"a", "b"}, dates))

	assert.Empty(t, gaps)
	assert.Equal(t, 20, forecast.Len())
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestGatewayWithoutSource(t *testing.T) {
	g := NewGateway(nil, nil, Options{})
	forecast, gaps := g.Fetch(context.Background(), []Key{
		NewKey("epcot", datetime.MustParseDate("2025-03-02")),
		NewKey("epcot", datetime.MustParseDate("2025-03-03")),
	})
	assert.Equal(t, 0, forecast.Len())
	assert.Len(t, gaps, 2)
}

func TestStaticSource(t *testing.T) {
	day := datetime.MustParseDate("2025-03-02")
	s := NewStaticSource([]Entry{
		{DestinationID: "epcot", Date: day, CrowdLevel: 6},
		{DestinationID: "epcot", Date: day, CrowdLevel: 4},
	})

	v, found, err := s.CrowdLevel(context.Background(), "epcot", day)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 4.0, v)

	_, found, err = s.CrowdLevel(context.Background(), "epcot", day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGatewayDestinations(t *testing.T) {
	from := datetime.MustParseDate("2025-03-01")
	to := datetime.MustParseDate("2025-03-03")
	static := NewStaticSource([]Entry{
		{DestinationID: "magic-kingdom", Date: from, CrowdLevel: 8},
		{DestinationID: "epcot", Date: to, CrowdLevel: 3},
		{DestinationID: "epcot", Date: from, CrowdLevel: 5},
		{DestinationID: "typhoon-lagoon", Date: to.AddDate(0, 0, 1), CrowdLevel: 1},
	})

	ids := NewGateway(nil, static, Options{}).Destinations(context.Background(), from, to)
	assert.Equal(t, []string{"epcot", "magic-kingdom"}, ids)

	plain := SourceFunc(func(ctx context.Context, dest string, date time.Time) (float64, bool, error) {
		return 0, false, nil
	})
	assert.Nil(t, NewGateway(nil, plain, Options{}).Destinations(context.Background(), from, to))
	assert.Nil(t, NewGateway(nil, nil, Options{}).Destinations(context.Background(), from, to))
}
