package optimizer

import (
	"fmt"

	"github.com/iwvelando/park-planner/internal/trip"
)

// priorityCoverage gives the most wanted destinations the quietest days.
type priorityCoverage struct{}

func (priorityCoverage) Name() string { return StrategyPriority }

func (s priorityCoverage) Reassign(in StrategyInput) StrategyOutput {
	ranking := rankDestinations(PriorityScores(in.Ratings))
	return rankedPairing(in, s.Name(), byCrowdAscending, ranking, func(r rankedDestination) string {
		return fmt.Sprintf("priority %.1f", r.Value)
	})
}

// PriorityScores returns, per rated destination, the summed must-do count
// multiplied by the mean activity rating.
func PriorityScores(ratings []trip.RatingSummary) map[string]float64 {
	type acc struct {
		mustDo int
		sum    float64
		n      int
	}
	by := make(map[string]*acc)
	for _, r := range ratings {
		if r.DestinationID == "" {
			continue
		}
		a := by[r.DestinationID]
		if a == nil {
			a = &acc{}
			by[r.DestinationID] = a
		}
		a.mustDo += r.MustDoCount
		a.sum += r.AverageRating
		a.n++
	}
	out := make(map[string]float64, len(by))
	for id, a := range by {
		out[id] = float64(a.mustDo) * (a.sum / float64(a.n))
	}
	return out
}
