package optimizer

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/iwvelando/park-planner/internal/crowd"
	"github.com/iwvelando/park-planner/pkg/datetime"
	"github.com/iwvelando/park-planner/pkg/optimization"
)

// StrategyRun pairs a strategy name with what it produced.
type StrategyRun struct {
	Strategy string
	Output   StrategyOutput
}

// Assemble scores every run against the original plan in in and returns the
// ranked result. Alternatives with equal scores keep their run order.
func Assemble(tripID string, in StrategyInput, runs []StrategyRun) optimization.Result {
	alternatives := make([]optimization.Alternative, 0, len(runs))
	for _, run := range runs {
		alternatives = append(alternatives, optimization.Alternative{
			ID:          uuid.NewString(),
			Strategy:    run.Strategy,
			Assignments: run.Output.Assignments,
			Benefits:    in.Benefits(run.Output.Assignments),
			Score:       ImprovementScore(in.Assignments, run.Output.Assignments),
			Confidence:  Confidence(in.Settings, in.Constraints, run.Output.Assignments),
			Reasoning:   run.Output.Reasoning,
			Warnings:    run.Output.Warnings,
		})
	}
	sort.SliceStable(alternatives, func(i, j int) bool {
		return alternatives[i].Score > alternatives[j].Score
	})

	result := optimization.Result{
		TripID:       tripID,
		Original:     cloneAssignments(in.Assignments),
		Alternatives: alternatives,
		Confidence:   Confidence(in.Settings, in.Constraints, in.Assignments),
	}

	gaps := dataGapWarnings(in.Assignments, alternatives)
	result.Warnings = append(result.Warnings, gaps...)
	for _, alt := range alternatives {
		result.Warnings = append(result.Warnings, alt.Warnings...)
	}

	flexible := len(in.flexible())
	result.Reasoning = append(result.Reasoning, fmt.Sprintf(
		"Evaluated %d strategy(ies) over %d day(s): %d flexible, %d fixed.",
		len(runs), len(in.Assignments), flexible, len(in.Assignments)-flexible))
	if flexible == 0 {
		result.Reasoning = append(result.Reasoning, "No flexible days with a destination; every alternative matches the original plan.")
	}
	for _, alt := range alternatives {
		result.Reasoning = append(result.Reasoning, fmt.Sprintf(
			"%s: score %.1f, crowd reduction %.1f%%, %d day(s) changed.",
			alt.Strategy, alt.Score, alt.Benefits.CrowdReductionPercent, len(alt.Changed(in.Assignments))))
	}
	if best, ok := result.Recommended(); ok {
		result.Confidence = best.Confidence
		result.Reasoning = append(result.Reasoning, fmt.Sprintf("Recommended: %s.", best.Strategy))
		result.Reasoning = append(result.Reasoning, best.Reasoning...)
	}
	if len(gaps) > 0 {
		result.Reasoning = append(result.Reasoning, fmt.Sprintf(
			"%d destination/date pair(s) had no forecast; neutral crowd score %.0f used.",
			len(gaps), in.Settings.FallbackCrowdScore))
	}
	return result
}

// dataGapWarnings reports each scheduled destination/date pair that fell back
// to the neutral crowd score, once.
func dataGapWarnings(original []optimization.Assignment, alternatives []optimization.Alternative) []optimization.Warning {
	seen := make(map[crowd.Key]bool)
	var out []optimization.Warning
	add := func(a optimization.Assignment) {
		if a.DestinationID == "" || a.HasForecast {
			return
		}
		k := crowd.NewKey(a.DestinationID, a.Date)
		if seen[k] {
			return
		}
		seen[k] = true
		out = append(out, optimization.Warning{
			Kind:          optimization.WarningDataGap,
			DayID:         a.DayID,
			DestinationID: a.DestinationID,
			Date:          a.Date,
			Message:       fmt.Sprintf("no crowd forecast for %s on %s", a.DestinationID, datetime.FormatDate(a.Date)),
		})
	}
	for _, a := range original {
		add(a)
	}
	for _, alt := range alternatives {
		for _, a := range alt.Assignments {
			add(a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].DestinationID < out[j].DestinationID
	})
	return out
}
