package optimizer

import "fmt"

// energyPacing puts the most demanding destinations early in the trip.
type energyPacing struct{}

func (energyPacing) Name() string { return StrategyPacing }

func (s energyPacing) Reassign(in StrategyInput) StrategyOutput {
	values := make(map[string]float64, len(in.Destinations))
	for _, d := range in.Destinations {
		values[d.ID] = in.intensity(d.ID)
	}
	return rankedPairing(in, s.Name(), chronological, rankDestinations(values), func(r rankedDestination) string {
		return fmt.Sprintf("intensity %.0f", r.Value)
	})
}
