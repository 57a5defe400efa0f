package optimizer

import (
	"fmt"
	"sort"

	"github.com/iwvelando/park-planner/internal/crowd"
)

// crowdMinimization spreads destinations across flexible days, preferring the
// least used destination and then the lightest crowd.
type crowdMinimization struct{}

func (crowdMinimization) Name() string { return StrategyCrowd }

type crowdCandidate struct {
	id    string
	crowd float64
}

func (s crowdMinimization) Reassign(in StrategyInput) StrategyOutput {
	out := StrategyOutput{Assignments: cloneAssignments(in.Assignments)}

	taken := make(map[crowd.Key]bool)
	flex := in.flexible()
	isFlex := make(map[int]bool, len(flex))
	for _, i := range flex {
		isFlex[i] = true
	}
	for i, a := range in.Assignments {
		if !isFlex[i] && a.DestinationID != "" {
			taken[crowd.NewKey(a.DestinationID, a.Date)] = true
		}
	}

	usage := make(map[string]int, len(in.Destinations))
	for _, i := range flex {
		current := out.Assignments[i]
		candidates := make([]crowdCandidate, 0, len(in.Destinations))
		for _, d := range in.Destinations {
			if taken[crowd.NewKey(d.ID, current.Date)] {
				continue
			}
			candidates = append(candidates, crowdCandidate{id: d.ID, crowd: in.crowdFor(d.ID, current)})
		}
		if len(candidates) == 0 {
			out.keep(s.Name(), current, in.displayName(current.DestinationID), 0)
			continue
		}
		sort.Slice(candidates, func(x, y int) bool {
			cx, cy := candidates[x], candidates[y]
			if usage[cx.id] != usage[cy.id] {
				return usage[cx.id] < usage[cy.id]
			}
			if cx.crowd != cy.crowd {
				return cx.crowd < cy.crowd
			}
			return cx.id < cy.id
		})

		chosen := candidates[0]
		usage[chosen.id]++
		next := in.reassign(current, chosen.id)
		out.Assignments[i] = next
		out.Reasoning = append(out.Reasoning,
			changeLine(in, current, next, fmt.Sprintf("used %d time(s) so far", usage[chosen.id]-1)))
	}
	return out
}

var _ Strategy = crowdMinimization{}
