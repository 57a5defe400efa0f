package crowd

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/iwvelando/park-planner/internal/metrics"
	"github.com/iwvelando/park-planner/pkg/constants"
	"github.com/iwvelando/park-planner/pkg/mathutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options tunes the gateway fan-out.
type Options struct {
	Concurrency   int
	LookupTimeout time.Duration
}

// Gap records a lookup that produced no usable value. Err is nil when the
// source simply had no forecast.
type Gap struct {
	Key Key
	Err error
}

// Gateway issues forecast lookups concurrently and folds the answers into a
// Forecast. It never fails a run: every failed or empty lookup becomes a Gap.
type Gateway struct {
	logger *zap.Logger
	source Source
	opts   Options
}

// NewGateway creates a Gateway over source. A nil source answers nothing.
func NewGateway(logger *zap.Logger, source Source, opts Options) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = constants.DefaultLookupConcurrency
	}
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = constants.DefaultLookupTimeout
	}
	return &Gateway{logger: logger, source: source, opts: opts}
}

// Fetch looks up every distinct key and returns the resulting Forecast along
// with the gaps, sorted by destination then date.
func (g *Gateway) Fetch(ctx context.Context, keys []Key) (*Forecast, []Gap) {
	unique := dedupeKeys(keys)
	if g.source == nil {
		gaps := make([]Gap, 0, len(unique))
		for _, k := range unique {
			gaps = append(gaps, Gap{Key: k})
		}
		metrics.ForecastLookups.WithLabelValues("absent").Add(float64(len(unique)))
		return NewForecast(nil), gaps
	}

	var (
		mu     sync.Mutex
		scores = make(map[Key]float64, len(unique))
		gaps   []Gap
	)

	var eg errgroup.Group
	eg.SetLimit(g.opts.Concurrency)
	for _, k := range unique {
		eg.Go(func() error {
			score, err := g.lookup(ctx, k)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				gaps = append(gaps, Gap{Key: k, Err: err})
				if !errors.Is(err, errAbsent) {
					metrics.ForecastLookups.WithLabelValues("error").Inc()
					g.logger.Debug("crowd forecast lookup failed, using fallback",
						zap.String("op", "crowd.Gateway.Fetch"),
						zap.String("destination", k.DestinationID),
						zap.String("date", k.Date),
						zap.Error(err),
					)
				} else {
					metrics.ForecastLookups.WithLabelValues("absent").Inc()
				}
				return nil
			}
			metrics.ForecastLookups.WithLabelValues("hit").Inc()
			scores[k] = score
			return nil
		})
	}
	_ = eg.Wait()

	for i := range gaps {
		if errors.Is(gaps[i].Err, errAbsent) {
			gaps[i].Err = nil
		}
	}
	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].Key.DestinationID != gaps[j].Key.DestinationID {
			return gaps[i].Key.DestinationID < gaps[j].Key.DestinationID
		}
		return gaps[i].Key.Date < gaps[j].Key.Date
	})

	return NewForecast(scores), gaps
}

// Destinations lists the destinations the source holds forecasts for within
// [from, to]. Sources that cannot enumerate, and listing failures, yield nil.
func (g *Gateway) Destinations(ctx context.Context, from, to time.Time) []string {
	lister, ok := g.source.(DestinationLister)
	if !ok {
		return nil
	}
	lctx, cancel := context.WithTimeout(ctx, g.opts.LookupTimeout)
	defer cancel()
	ids, err := lister.ForecastDestinations(lctx, from, to)
	if err != nil {
		g.logger.Debug("crowd destination listing failed",
			zap.String("op", "crowd.Gateway.Destinations"),
			zap.Error(err),
		)
		return nil
	}
	return ids
}

var errAbsent = errors.New("no forecast")

func (g *Gateway) lookup(ctx context.Context, k Key) (float64, error) {
	date, err := parseKeyDate(k)
	if err != nil {
		return 0, err
	}
	lctx, cancel := context.WithTimeout(ctx, g.opts.LookupTimeout)
	defer cancel()

	score, found, err := g.source.CrowdLevel(lctx, k.DestinationID, date)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, errAbsent
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, &LookupError{DestinationID: k.DestinationID, Date: date, Reason: "non-finite crowd level"}
	}
	return mathutil.Clamp(score, constants.MinCrowdScore, constants.MaxCrowdScore), nil
}

func dedupeKeys(keys []Key) []Key {
	seen := make(map[Key]struct{}, len(keys))
	out := make([]Key, 0, len(keys))
	for _, k := range keys {
		if k.DestinationID == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
