package optimizer

import (
	"github.com/iwvelando/park-planner/internal/crowd"
	"github.com/iwvelando/park-planner/internal/trip"
	"github.com/iwvelando/park-planner/pkg/constants"
	"github.com/iwvelando/park-planner/pkg/optimization"
)

// BuildAssignments produces one Assignment per canonical day. Missing forecasts
// and days without a destination use fallback.
func BuildAssignments(days []trip.Day, forecast *crowd.Forecast, fallback float64) []optimization.Assignment {
	out := make([]optimization.Assignment, 0, len(days))
	for _, d := range days {
		a := optimization.Assignment{DayID: d.ID, Date: d.Date}
		out = append(out, withDestination(a, d.DestinationID, forecast, fallback))
	}
	return out
}

// withDestination returns a with destinationID and the matching crowd data.
func withDestination(a optimization.Assignment, destinationID string, forecast *crowd.Forecast, fallback float64) optimization.Assignment {
	a.DestinationID = destinationID
	a.CrowdScore = fallback
	a.HasForecast = false
	if destinationID != "" {
		if v, ok := forecast.Lookup(destinationID, a.Date); ok {
			a.CrowdScore = v
			a.HasForecast = true
		}
	}
	a.Score = constants.MaxCrowdScore - a.CrowdScore
	return a
}

func cloneAssignments(in []optimization.Assignment) []optimization.Assignment {
	return append([]optimization.Assignment(nil), in...)
}
