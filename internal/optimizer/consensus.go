package optimizer

import (
	"fmt"

	"github.com/iwvelando/park-planner/internal/trip"
)

// consensusBalancing gives the most disputed destinations the quietest days.
type consensusBalancing struct{}

func (consensusBalancing) Name() string { return StrategyConsensus }

func (s consensusBalancing) Reassign(in StrategyInput) StrategyOutput {
	ranking := rankDestinations(ConflictScores(in.Ratings))
	return rankedPairing(in, s.Name(), byCrowdAscending, ranking, func(r rankedDestination) string {
		return fmt.Sprintf("conflict %.0f", r.Value)
	})
}

// ConflictWeight maps a consensus level to its disagreement weight.
func ConflictWeight(c trip.Consensus) float64 {
	switch c {
	case trip.ConsensusConflict:
		return 3
	case trip.ConsensusLow:
		return 2
	case trip.ConsensusMedium:
		return 1
	default:
		return 0
	}
}

// ConflictScores sums ConflictWeight over each destination's rated activities.
func ConflictScores(ratings []trip.RatingSummary) map[string]float64 {
	out := make(map[string]float64)
	for _, r := range ratings {
		if r.DestinationID == "" {
			continue
		}
		out[r.DestinationID] += ConflictWeight(r.Consensus)
	}
	return out
}
