// Package store persists trips, group ratings and crowd forecasts.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iwvelando/park-planner/internal/crowd"
	"github.com/iwvelando/park-planner/internal/trip"
	"github.com/iwvelando/park-planner/pkg/constants"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a requested trip does not exist.
var ErrNotFound = errors.New("trip not found")

// Store is the persistence boundary of the planner. The optimizer only reads
// through it; UpdateDestinations is the apply path used by callers.
type Store interface {
	GetTrip(ctx context.Context, id string) (trip.Trip, error)
	ListRatings(ctx context.Context, tripID string) ([]trip.RatingSummary, error)
	// UpdateDestinations writes the destination of every listed day that
	// belongs to the trip. Other day fields are left untouched.
	UpdateDestinations(ctx context.Context, tripID string, days []trip.Day) error

	SaveTrip(ctx context.Context, t trip.Trip) error
	SaveRatings(ctx context.Context, tripID string, ratings []trip.RatingSummary) error
	SaveForecasts(ctx context.Context, entries []crowd.Entry) error

	crowd.Source
	crowd.DestinationLister
	Close() error
}

// Open returns the Store for driver. dsn is ignored by the memory driver.
func Open(ctx context.Context, logger *zap.Logger, driver, dsn string) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", constants.StoreDriverMemory:
		return NewMemory(), nil
	case constants.StoreDriverSQLite:
		return NewSQLite(ctx, logger, dsn)
	case constants.StoreDriverPostgres:
		return NewPostgres(ctx, logger, dsn)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
}
