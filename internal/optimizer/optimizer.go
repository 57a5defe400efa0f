// Package optimizer re-pairs a trip's destinations with its flexible days
// under one or more strategies and ranks the resulting plans.
package optimizer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/iwvelando/park-planner/internal/crowd"
	"github.com/iwvelando/park-planner/internal/metrics"
	"github.com/iwvelando/park-planner/internal/trip"
	"github.com/iwvelando/park-planner/pkg/optimization"
	"go.uber.org/zap"
)

// Request is one optimization run.
type Request struct {
	Trip    trip.Trip
	Ratings []trip.RatingSummary
	// Strategy selects a single strategy; empty evaluates all of them.
	Strategy    string
	Constraints []LockOverride
}

// Runner executes optimization runs. It is safe for concurrent use.
type Runner struct {
	logger     *zap.Logger
	settings   Settings
	gateway    *crowd.Gateway
	classifier trip.Classifier
}

// NewRunner constructs a Runner. A nil gateway leaves every pair on the
// fallback crowd score; a nil classifier labels days by position.
func NewRunner(logger *zap.Logger, settings Settings, gateway *crowd.Gateway, classifier trip.Classifier) (*Runner, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid optimizer settings: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if gateway == nil {
		gateway = crowd.NewGateway(logger, nil, crowd.Options{})
	}
	return &Runner{logger: logger, settings: settings, gateway: gateway, classifier: classifier}, nil
}

// Run normalizes the trip, fetches crowd forecasts and evaluates the
// requested strategies. Only an invalid trip or strategy name fails a run.
func (r *Runner) Run(ctx context.Context, req Request) (*optimization.Result, error) {
	started := time.Now()
	label := req.Strategy
	if label == "" {
		label = "all"
	}

	strategies, err := selectStrategies(req.Strategy)
	if err != nil {
		metrics.OptimizationRuns.WithLabelValues(label, "invalid").Inc()
		return nil, err
	}

	days, err := trip.Normalize(req.Trip, r.classifier)
	if err != nil {
		metrics.OptimizationRuns.WithLabelValues(label, "invalid").Inc()
		r.logger.Warn("trip rejected",
			zap.String("op", "optimizer.Run"),
			zap.String("trip", req.Trip.ID),
			zap.Error(err),
		)
		return nil, err
	}

	dates := make([]time.Time, 0, len(days))
	for _, d := range days {
		dates = append(dates, d.Date)
	}
	from, to := dateSpan(dates)
	forecasted := r.gateway.Destinations(ctx, from, to)

	destinations := knownDestinations(req.Trip.Destinations, days, req.Ratings, forecasted)
	ids := make([]string, 0, len(destinations))
	for _, d := range destinations {
		ids = append(ids, d.ID)
	}

	forecast, gaps := r.gateway.Fetch(ctx, crowd.CrossKeys(ids, dates))
	for _, g := range gaps {
		if g.Err != nil {
			r.logger.Debug("forecast lookup failed",
				zap.String("op", "optimizer.Run"),
				zap.String("destination", g.Key.DestinationID),
				zap.String("date", g.Key.Date),
				zap.Error(g.Err),
			)
		}
	}

	in := StrategyInput{
		Assignments:  BuildAssignments(days, forecast, r.settings.FallbackCrowdScore),
		Constraints:  ResolveConstraints(days, req.Constraints),
		Forecast:     forecast,
		Destinations: destinations,
		Ratings:      req.Ratings,
		Settings:     r.settings,
	}

	runs := make([]StrategyRun, 0, len(strategies))
	for _, s := range strategies {
		runs = append(runs, StrategyRun{Strategy: s.Name(), Output: s.Reassign(in)})
	}
	result := Assemble(req.Trip.ID, in, runs)

	for _, alt := range result.Alternatives {
		metrics.AlternativeScores.WithLabelValues(alt.Strategy).Observe(alt.Score)
	}
	metrics.OptimizationRuns.WithLabelValues(label, "ok").Inc()
	metrics.OptimizationDuration.WithLabelValues(label).Observe(time.Since(started).Seconds())

	fields := []zap.Field{
		zap.String("op", "optimizer.Run"),
		zap.String("trip", req.Trip.ID),
		zap.Int("days", len(days)),
		zap.Int("destinations", len(destinations)),
		zap.Int("forecasts", forecast.Len()),
		zap.Int("gaps", len(gaps)),
		zap.Int("alternatives", len(result.Alternatives)),
		zap.Float64("confidence", result.Confidence),
		zap.Int("partialWarnings", optimization.CountWarnings(result.Warnings, optimization.WarningPartialAssignment)),
	}
	if best, ok := result.Recommended(); ok {
		fields = append(fields, zap.String("recommended", best.Strategy), zap.Float64("score", best.Score))
	}
	r.logger.Info("optimization complete", fields...)

	return &result, nil
}

func selectStrategies(name string) ([]Strategy, error) {
	if name == "" {
		return Strategies(), nil
	}
	s, err := StrategyByName(name)
	if err != nil {
		return nil, err
	}
	return []Strategy{s}, nil
}

// dateSpan returns the earliest and latest of dates.
func dateSpan(dates []time.Time) (from, to time.Time) {
	for i, d := range dates {
		if i == 0 || d.Before(from) {
			from = d
		}
		if i == 0 || d.After(to) {
			to = d
		}
	}
	return from, to
}

// knownDestinations merges the catalog with every destination referenced by a
// day, a rating or the forecast source, sorted by ID. Catalog entries keep
// their name and type.
func knownDestinations(catalog []trip.Destination, days []trip.Day, ratings []trip.RatingSummary, forecasted []string) []trip.Destination {
	by := make(map[string]trip.Destination)
	for _, d := range catalog {
		if d.ID == "" {
			continue
		}
		if _, ok := by[d.ID]; !ok {
			by[d.ID] = d
		}
	}
	for _, d := range days {
		if _, ok := by[d.DestinationID]; d.DestinationID != "" && !ok {
			by[d.DestinationID] = trip.Destination{ID: d.DestinationID}
		}
	}
	for _, r := range ratings {
		if _, ok := by[r.DestinationID]; r.DestinationID != "" && !ok {
			by[r.DestinationID] = trip.Destination{ID: r.DestinationID}
		}
	}
	for _, id := range forecasted {
		if _, ok := by[id]; id != "" && !ok {
			by[id] = trip.Destination{ID: id}
		}
	}
	out := make([]trip.Destination, 0, len(by))
	for _, d := range by {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
