package crowd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/iwvelando/park-planner/pkg/datetime"
)

// Source looks up the crowd score of one destination on one date. A missing
// forecast is reported with found == false and a nil error.
type Source interface {
	CrowdLevel(ctx context.Context, destinationID string, date time.Time) (score float64, found bool, err error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, destinationID string, date time.Time) (float64, bool, error)

// CrowdLevel calls f.
func (f SourceFunc) CrowdLevel(ctx context.Context, destinationID string, date time.Time) (float64, bool, error) {
	return f(ctx, destinationID, date)
}

// LookupError is returned when a source fails to answer a lookup.
type LookupError struct {
	DestinationID string
	Date          time.Time
	Reason        string
	Err           error
}

func (e *LookupError) Error() string {
	msg := fmt.Sprintf("crowd lookup failed for %s on %s: %s", e.DestinationID, datetime.FormatDate(e.Date), e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// Entry is one known forecast value.
type Entry struct {
	DestinationID string
	Date          time.Time
	CrowdLevel    float64
}

// StaticSource serves forecasts from a fixed table.
type StaticSource struct {
	scores map[Key]float64
}

// NewStaticSource builds a StaticSource from entries. Later entries for the
// same destination and date replace earlier ones.
func NewStaticSource(entries []Entry) *StaticSource {
	s := &StaticSource{scores: make(map[Key]float64, len(entries))}
	for _, e := range entries {
		s.scores[NewKey(e.DestinationID, e.Date)] = e.CrowdLevel
	}
	return s
}

// CrowdLevel implements Source.
func (s *StaticSource) CrowdLevel(_ context.Context, destinationID string, date time.Time) (float64, bool, error) {
	v, ok := s.scores[NewKey(destinationID, date)]
	return v, ok, nil
}

// DestinationLister is implemented by sources that can enumerate the
// destinations they hold forecasts for.
type DestinationLister interface {
	// ForecastDestinations returns the sorted IDs of destinations with at
	// least one forecast dated within [from, to].
	ForecastDestinations(ctx context.Context, from, to time.Time) ([]string, error)
}

// ForecastDestinations implements DestinationLister.
func (s *StaticSource) ForecastDestinations(_ context.Context, from, to time.Time) ([]string, error) {
	return DestinationsInRange(s.scores, from, to), nil
}

// DestinationsInRange collects the sorted destination IDs of scores keyed
// within [from, to].
func DestinationsInRange(scores map[Key]float64, from, to time.Time) []string {
	lo, hi := datetime.FormatDate(from), datetime.FormatDate(to)
	seen := make(map[string]struct{})
	out := []string{}
	for k := range scores {
		if k.DestinationID == "" || k.Date < lo || k.Date > hi {
			continue
		}
		if _, ok := seen[k.DestinationID]; ok {
			continue
		}
		seen[k.DestinationID] = struct{}{}
		out = append(out, k.DestinationID)
	}
	sort.Strings(out)
	return out
}

