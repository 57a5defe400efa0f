// Package crowd fetches per-destination, per-date crowd forecasts and exposes
// them to the optimizer as an immutable lookup table.
package crowd

import (
	"sort"
	"time"

	"github.com/iwvelando/park-planner/pkg/datetime"
)

// Key identifies one forecast value.
type Key struct {
	DestinationID string
	Date          string
}

// NewKey builds the Key for a destination on the calendar date of date.
func NewKey(destinationID string, date time.Time) Key {
	return Key{DestinationID: destinationID, Date: datetime.FormatDate(date)}
}

// Forecast is a read-only crowd score table for one optimization run.
type Forecast struct {
	scores       map[Key]float64
	destinations []string
}

// NewForecast copies scores into a new Forecast.
func NewForecast(scores map[Key]float64) *Forecast {
	f := &Forecast{scores: make(map[Key]float64, len(scores))}
	seen := make(map[string]struct{})
	for k, v := range scores {
		f.scores[k] = v
		if _, ok := seen[k.DestinationID]; !ok {
			seen[k.DestinationID] = struct{}{}
			f.destinations = append(f.destinations, k.DestinationID)
		}
	}
	sort.Strings(f.destinations)
	return f
}

// Lookup returns the crowd score of destinationID on date. A nil Forecast
// holds no data.
func (f *Forecast) Lookup(destinationID string, date time.Time) (float64, bool) {
	if f == nil {
		return 0, false
	}
	v, ok := f.scores[NewKey(destinationID, date)]
	return v, ok
}

// Destinations returns the sorted destination IDs with at least one value.
func (f *Forecast) Destinations() []string {
	if f == nil {
		return nil
	}
	return append([]string(nil), f.destinations...)
}

// Len returns the number of values held.
func (f *Forecast) Len() int {
	if f == nil {
		return 0
	}
	return len(f.scores)
}
