// Package testutil provides fixture builders shared by package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/iwvelando/park-planner/internal/config"
	"github.com/iwvelando/park-planner/internal/crowd"
	"github.com/iwvelando/park-planner/pkg/datetime"
	"github.com/iwvelando/park-planner/pkg/optimization"
)

// SampleTripID identifies the trip built by SampleTrip.
const SampleTripID = "trip-1"

// sampleDates are the five calendar days of the sample trip.
var sampleDates = []string{"2025-03-01", "2025-03-02", "2025-03-03", "2025-03-04", "2025-03-05"}

// Date parses a YYYY-MM-DD string or fails the test.
func Date(tb testing.TB, value string) time.Time {
	tb.Helper()
	d, err := datetime.ParseDate(value)
	if err != nil {
		tb.Fatalf("parse %q: %v", value, err)
	}
	return d
}

// SampleTrip is a five-day trip spending every day at destination A: an
// arrival, three flexible days and a departure. The catalog lists A
// (thrill-park), B (resort) and C (water-park).
func SampleTrip() config.TripConfig {
	labels := []string{"arrival", "destination-day", "destination-day", "destination-day", "departure"}
	days := make([]config.DayConfig, 0, len(sampleDates))
	for i, d := range sampleDates {
		days = append(days, config.DayConfig{
			ID:          "d" + string(rune('1'+i)),
			Date:        d,
			Destination: "A",
			Label:       labels[i],
		})
	}
	return config.TripConfig{
		ID:    SampleTripID,
		Name:  "Spring Break",
		Start: sampleDates[0],
		End:   sampleDates[len(sampleDates)-1],
		Days:  days,
		Destinations: []config.DestinationConfig{
			{ID: "A", Name: "Alpha Park", Type: "thrill-park"},
			{ID: "B", Name: "Bravo Park", Type: "resort"},
			{ID: "C", Name: "Charlie Park", Type: "water-park"},
		},
	}
}

// SampleRatings rates A as the group favourite and C as contested.
func SampleRatings() []config.RatingConfig {
	return []config.RatingConfig{
		{Destination: "A", Activity: "coaster", AverageRating: 4.5, MustDoCount: 3, Consensus: "high"},
		{Destination: "B", Activity: "spa", AverageRating: 3, MustDoCount: 1, Consensus: "medium"},
		{Destination: "C", Activity: "slides", AverageRating: 4, MustDoCount: 2, Consensus: "conflict"},
	}
}

// SampleForecast puts A at 8, B at 2 and C at 4 on every day of SampleTrip.
func SampleForecast(tb testing.TB) []crowd.Entry {
	tb.Helper()
	levels := map[string]float64{"A": 8, "B": 2, "C": 4}
	out := make([]crowd.Entry, 0, len(sampleDates)*len(levels))
	for _, day := range sampleDates {
		for _, dest := range []string{"A", "B", "C"} {
			out = append(out, crowd.Entry{DestinationID: dest, Date: Date(tb, day), CrowdLevel: levels[dest]})
		}
	}
	return out
}

// FindAlternative returns the alternative produced by strategy, or nil.
func FindAlternative(result *optimization.Result, strategy string) *optimization.Alternative {
	if result == nil {
		return nil
	}
	for i := range result.Alternatives {
		if result.Alternatives[i].Strategy == strategy {
			return &result.Alternatives[i]
		}
	}
	return nil
}

// Destinations lists the destination of every assignment in order.
func Destinations(assignments []optimization.Assignment) []string {
	out := make([]string, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, a.DestinationID)
	}
	return out
}
