package optimizer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iwvelando/park-planner/internal/crowd"
	"github.com/iwvelando/park-planner/internal/trip"
	"github.com/iwvelando/park-planner/pkg/constants"
	"github.com/iwvelando/park-planner/pkg/datetime"
	"github.com/iwvelando/park-planner/pkg/optimization"
)

// Strategy names.
const (
	StrategyCrowd     = constants.StrategyCrowd
	StrategyPriority  = constants.StrategyPriority
	StrategyConsensus = constants.StrategyConsensus
	StrategyPacing    = constants.StrategyPacing
)

// StrategyInput is everything a strategy may read. Strategies must not modify it.
type StrategyInput struct {
	Assignments  []optimization.Assignment
	Constraints  []Constraint
	Forecast     *crowd.Forecast
	Destinations []trip.Destination
	Ratings      []trip.RatingSummary
	Settings     Settings
}

// StrategyOutput is a strategy's proposed plan.
type StrategyOutput struct {
	Assignments []optimization.Assignment
	Reasoning   []string
	Warnings    []optimization.Warning
}

// Strategy re-pairs destinations with the flexible days of a plan.
type Strategy interface {
	Name() string
	Reassign(in StrategyInput) StrategyOutput
}

// Strategies returns every strategy in evaluation order.
func Strategies() []Strategy {
	return []Strategy{
		crowdMinimization{},
		priorityCoverage{},
		consensusBalancing{},
		energyPacing{},
	}
}

// StrategyNames returns the names accepted by StrategyByName.
func StrategyNames() []string {
	all := Strategies()
	names := make([]string, 0, len(all))
	for _, s := range all {
		names = append(names, s.Name())
	}
	return names
}

// StrategyByName looks up a strategy, ignoring case.
func StrategyByName(name string) (Strategy, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, s := range Strategies() {
		if s.Name() == want {
			return s, nil
		}
	}
	return nil, fmt.Errorf("unknown strategy %q (expected one of %s)", name, strings.Join(StrategyNames(), ", "))
}

// flexible returns the indexes of assignments that may be re-paired, in
// chronological order.
func (in StrategyInput) flexible() []int {
	may := make(map[string]bool, len(in.Constraints))
	for _, c := range in.Constraints {
		may[c.DayID] = c.MayReassign
	}
	var idx []int
	for i, a := range in.Assignments {
		if may[a.DayID] && a.DestinationID != "" {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(x, y int) bool {
		return in.Assignments[idx[x]].Date.Before(in.Assignments[idx[y]].Date)
	})
	return idx
}

func (in StrategyInput) crowdFor(destinationID string, a optimization.Assignment) float64 {
	if v, ok := in.Forecast.Lookup(destinationID, a.Date); ok {
		return v
	}
	return in.Settings.FallbackCrowdScore
}

func (in StrategyInput) reassign(a optimization.Assignment, destinationID string) optimization.Assignment {
	return withDestination(a, destinationID, in.Forecast, in.Settings.FallbackCrowdScore)
}

func (in StrategyInput) destination(id string) (trip.Destination, bool) {
	for _, d := range in.Destinations {
		if d.ID == id {
			return d, true
		}
	}
	return trip.Destination{}, false
}

// displayName prefers the catalog name of a destination.
func (in StrategyInput) displayName(id string) string {
	if d, ok := in.destination(id); ok && d.Name != "" {
		return d.Name
	}
	return id
}

func (in StrategyInput) intensity(id string) float64 {
	d, _ := in.destination(id)
	return in.Settings.IntensityFor(d.Type)
}

// rankedDestination is one entry of a strategy's destination ranking.
type rankedDestination struct {
	ID    string
	Value float64
}

// rankDestinations sorts by Value descending, then by ID.
func rankDestinations(values map[string]float64) []rankedDestination {
	out := make([]rankedDestination, 0, len(values))
	for id, v := range values {
		out = append(out, rankedDestination{ID: id, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// rankedPairing orders flexible days with dayLess and pairs them by position
// with ranking. Days beyond the ranking keep their destination.
func rankedPairing(in StrategyInput, name string, dayLess func(a, b optimization.Assignment) bool, ranking []rankedDestination, describe func(rankedDestination) string) StrategyOutput {
	out := StrategyOutput{Assignments: cloneAssignments(in.Assignments)}
	days := in.flexible()
	sort.SliceStable(days, func(x, y int) bool {
		a, b := out.Assignments[days[x]], out.Assignments[days[y]]
		if dayLess(a, b) {
			return true
		}
		if dayLess(b, a) {
			return false
		}
		return a.Date.Before(b.Date)
	})

	for k, i := range days {
		current := out.Assignments[i]
		if k >= len(ranking) {
			out.keep(name, current, in.displayName(current.DestinationID), len(ranking))
			continue
		}
		next := in.reassign(current, ranking[k].ID)
		out.Assignments[i] = next
		out.Reasoning = append(out.Reasoning, changeLine(in, current, next, describe(ranking[k])))
	}
	return out
}

// keep records a flexible day that had no candidate left.
func (out *StrategyOutput) keep(strategy string, a optimization.Assignment, name string, candidates int) {
	date := datetime.FormatDate(a.Date)
	out.Reasoning = append(out.Reasoning,
		fmt.Sprintf("%s: kept %s, only %d candidate(s) for the flexible days", date, name, candidates))
	out.Warnings = append(out.Warnings, optimization.Warning{
		Kind:          optimization.WarningPartialAssignment,
		Strategy:      strategy,
		DayID:         a.DayID,
		DestinationID: a.DestinationID,
		Date:          a.Date,
		Message:       fmt.Sprintf("no ranked candidate left for %s, original destination kept", date),
	})
}

func changeLine(in StrategyInput, before, after optimization.Assignment, why string) string {
	date := datetime.FormatDate(before.Date)
	if before.DestinationID == after.DestinationID {
		return fmt.Sprintf("%s: keep %s (%s, crowd %.1f)", date, in.displayName(after.DestinationID), why, after.CrowdScore)
	}
	return fmt.Sprintf("%s: %s -> %s (%s, crowd %.1f -> %.1f)", date,
		in.displayName(before.DestinationID), in.displayName(after.DestinationID), why,
		before.CrowdScore, after.CrowdScore)
}

func byCrowdAscending(a, b optimization.Assignment) bool {
	return a.CrowdScore < b.CrowdScore
}

func chronological(a, b optimization.Assignment) bool {
	return a.Date.Before(b.Date)
}
