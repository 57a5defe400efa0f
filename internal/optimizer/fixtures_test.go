package optimizer

import (
	"testing"
	"time"

	"github.com/iwvelando/park-planner/internal/crowd"
	"github.com/iwvelando/park-planner/internal/trip"
	"github.com/iwvelando/park-planner/pkg/datetime"
	"github.com/iwvelando/park-planner/pkg/optimization"
)

func date(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := datetime.ParseDate(value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return d
}

// fiveDayTrip is arrival, three flexible days at A, departure.
func fiveDayTrip(t *testing.T) trip.Trip {
	t.Helper()
	return trip.Trip{
		ID:    "trip-1",
		Start: date(t, "2025-03-01"),
		End:   date(t, "2025-03-05"),
		Days: []trip.Day{
			{ID: "d1", Date: date(t, "2025-03-01"), DestinationID: "A", Label: trip.LabelArrival},
			{ID: "d2", Date: date(t, "2025-03-02"), DestinationID: "A", Label: trip.LabelDestinationDay},
			{ID: "d3", Date: date(t, "2025-03-03"), DestinationID: "A", Label: trip.LabelDestinationDay},
			{ID: "d4", Date: date(t, "2025-03-04"), DestinationID: "A", Label: trip.LabelDestinationDay},
			{ID: "d5", Date: date(t, "2025-03-05"), DestinationID: "A", Label: trip.LabelDeparture},
		},
		Destinations: []trip.Destination{
			{ID: "A", Name: "Alpha Park", Type: "thrill-park"},
			{ID: "B", Name: "Bravo Park", Type: "resort"},
			{ID: "C", Name: "Charlie Park", Type: "water-park"},
		},
	}
}

// fiveDayEntries puts A at 8, B at 2 and C at 4 on every day.
func fiveDayEntries(t *testing.T) []crowd.Entry {
	t.Helper()
	levels := map[string]float64{"A": 8, "B": 2, "C": 4}
	var out []crowd.Entry
	for _, day := range []string{"2025-03-01", "2025-03-02", "2025-03-03", "2025-03-04", "2025-03-05"} {
		for _, dest := range []string{"A", "B", "C"} {
			out = append(out, crowd.Entry{DestinationID: dest, Date: date(t, day), CrowdLevel: levels[dest]})
		}
	}
	return out
}

func fiveDayForecast(t *testing.T) *crowd.Forecast {
	t.Helper()
	scores := make(map[crowd.Key]float64)
	for _, e := range fiveDayEntries(t) {
		scores[crowd.NewKey(e.DestinationID, e.Date)] = e.CrowdLevel
	}
	return crowd.NewForecast(scores)
}

// fiveDayInput builds the StrategyInput a Runner would hand to strategies.
func fiveDayInput(t *testing.T, ratings []trip.RatingSummary) StrategyInput {
	t.Helper()
	tr := fiveDayTrip(t)
	days, err := trip.Normalize(tr, nil)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	forecast := fiveDayForecast(t)
	settings := DefaultSettings()
	return StrategyInput{
		Assignments:  BuildAssignments(days, forecast, settings.FallbackCrowdScore),
		Constraints:  ResolveConstraints(days, nil),
		Forecast:     forecast,
		Destinations: knownDestinations(tr.Destinations, days, ratings, forecast.Destinations()),
		Ratings:      ratings,
		Settings:     settings,
	}
}

func destinations(assignments []optimization.Assignment) []string {
	out := make([]string, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, a.DestinationID)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
