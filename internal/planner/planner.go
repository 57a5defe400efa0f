// Package planner assembles a Runner and a Store from a Configuration. Both
// binaries go through it so the CLI and the server wire the same stack.
package planner

import (
	"context"
	"errors"
	"fmt"

	"github.com/iwvelando/park-planner/internal/config"
	"github.com/iwvelando/park-planner/internal/crowd"
	"github.com/iwvelando/park-planner/internal/optimizer"
	"github.com/iwvelando/park-planner/internal/store"
	"go.uber.org/zap"
)

// Planner owns the long-lived pieces of the application.
type Planner struct {
	Runner *optimizer.Runner
	Store  store.Store

	conf    *config.Configuration
	logger  *zap.Logger
	closers []func() error
}

// New opens the store, builds the crowd source and gateway, and constructs
// the runner. The inline trip and ratings of conf, if any, are saved to the
// store so they can be addressed by ID.
func New(ctx context.Context, logger *zap.Logger, conf *config.Configuration) (*Planner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if conf == nil {
		conf = config.DefaultConfiguration()
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	st, err := store.Open(ctx, logger, conf.Store.Driver, conf.Store.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", conf.Store.Driver, err)
	}
	p := &Planner{Store: st, conf: conf, logger: logger, closers: []func() error{st.Close}}

	source, closeSource, err := conf.Crowd.BuildSource(logger, st)
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to build crowd source: %w", err)
	}
	p.closers = append(p.closers, closeSource)

	gateway := crowd.NewGateway(logger, source, conf.Crowd.GatewayOptions())
	p.Runner, err = optimizer.NewRunner(logger, conf.Optimizer.Settings(), gateway, nil)
	if err != nil {
		_ = p.Close()
		return nil, err
	}

	if err := p.seed(ctx); err != nil {
		_ = p.Close()
		return nil, err
	}

	logger.Info("planner ready",
		zap.String("op", "planner.New"),
		zap.String("store", conf.Store.Driver),
		zap.String("crowdSource", conf.Crowd.Source),
		zap.Bool("cache", conf.Crowd.Redis.URL != ""),
	)
	return p, nil
}

func (p *Planner) seed(ctx context.Context) error {
	if p.conf.Trip == nil {
		return nil
	}
	t, err := p.conf.Trip.ToTrip()
	if err != nil {
		return err
	}
	ratings, err := config.ToRatings(p.conf.Ratings)
	if err != nil {
		return err
	}
	if err := p.Store.SaveTrip(ctx, t); err != nil {
		return fmt.Errorf("failed to save configured trip: %w", err)
	}
	if err := p.Store.SaveRatings(ctx, t.ID, ratings); err != nil {
		return fmt.Errorf("failed to save configured ratings: %w", err)
	}
	p.logger.Debug("configured trip saved",
		zap.String("op", "planner.seed"),
		zap.String("trip", t.ID),
		zap.Int("days", len(t.Days)),
		zap.Int("ratings", len(ratings)),
	)
	return nil
}

// Request builds an optimization request for tripID, read from the store. An
// empty tripID selects the configured inline trip. strategy overrides the
// configured strategy when non-empty.
func (p *Planner) Request(ctx context.Context, tripID, strategy string) (optimizer.Request, error) {
	if tripID == "" {
		if p.conf.Trip == nil {
			return optimizer.Request{}, errors.New("no trip configured and no trip id given")
		}
		tripID = p.conf.Trip.ID
	}

	t, err := p.Store.GetTrip(ctx, tripID)
	if err != nil {
		return optimizer.Request{}, err
	}
	ratings, err := p.Store.ListRatings(ctx, tripID)
	if err != nil {
		return optimizer.Request{}, err
	}

	if strategy == "" {
		strategy = p.conf.Optimizer.Strategy
	}
	return optimizer.Request{Trip: t, Ratings: ratings, Strategy: strategy}, nil
}

// Close releases the crowd cache and the store.
func (p *Planner) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	return errors.Join(errs...)
}
