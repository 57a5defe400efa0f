package optimizer

import (
	"sort"
	"time"

	"github.com/iwvelando/park-planner/internal/trip"
	"github.com/iwvelando/park-planner/pkg/constants"
	"github.com/iwvelando/park-planner/pkg/mathutil"
	"github.com/iwvelando/park-planner/pkg/optimization"
)

type totals struct {
	score float64
	crowd float64
}

// scheduledTotals sums over assignments that carry a destination.
func scheduledTotals(assignments []optimization.Assignment) totals {
	var t totals
	for _, a := range assignments {
		if a.DestinationID == "" {
			continue
		}
		t.score += a.Score
		t.crowd += a.CrowdScore
	}
	return t
}

// ImprovementScore maps the relative change in total derived score onto
// 0..100, with an unchanged plan at 50.
func ImprovementScore(original, optimized []optimization.Assignment) float64 {
	before := scheduledTotals(original).score
	after := scheduledTotals(optimized).score
	if before == 0 {
		if after > 0 {
			return constants.PercentageMultiplier
		}
		return constants.NeutralImprovementScore
	}
	score := constants.NeutralImprovementScore + constants.NeutralImprovementScore*(after-before)/before
	return mathutil.Round(mathutil.Clamp(score, 0, constants.PercentageMultiplier))
}

// CrowdReduction is the percentage of crowd points removed. It is never negative.
func CrowdReduction(original, optimized []optimization.Assignment) float64 {
	before := scheduledTotals(original).crowd
	after := scheduledTotals(optimized).crowd
	if before == 0 || after >= before {
		return 0
	}
	return mathutil.Round(mathutil.CalculatePercentage(before-after, before))
}

// EstimatedTimeSaved converts the removed crowd points into queue time.
func EstimatedTimeSaved(original, optimized []optimization.Assignment, minutesPerPoint int) time.Duration {
	removed := scheduledTotals(original).crowd - scheduledTotals(optimized).crowd
	if removed <= 0 || minutesPerPoint <= 0 {
		return 0
	}
	return time.Duration(removed * float64(minutesPerPoint) * float64(time.Minute)).Round(time.Minute)
}

// Confidence blends the share of flexible days with the share of scheduled
// assignments backed by a real forecast.
func Confidence(settings Settings, constraints []Constraint, assignments []optimization.Assignment) float64 {
	flexible := 0
	for _, c := range constraints {
		if c.MayReassign && c.DestinationID != "" {
			flexible++
		}
	}
	scheduled, withForecast := 0, 0
	for _, a := range assignments {
		if a.DestinationID == "" {
			continue
		}
		scheduled++
		if a.HasForecast {
			withForecast++
		}
	}
	value := settings.FlexibilityWeight*mathutil.Fraction(flexible, len(constraints)) +
		settings.DataQualityWeight*mathutil.Fraction(withForecast, scheduled)
	return mathutil.Round(mathutil.Clamp(value, 0, constants.PercentageMultiplier))
}

// PriorityCoverage is the share of the total priority score whose destination
// appears on at least one day.
func PriorityCoverage(assignments []optimization.Assignment, ratings []trip.RatingSummary) float64 {
	scores := PriorityScores(ratings)
	placed := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		placed[a.DestinationID] = true
	}
	var total, covered float64
	for id, v := range scores {
		total += v
		if placed[id] {
			covered += v
		}
	}
	return mathutil.Round(mathutil.CalculatePercentage(covered, total))
}

// PacingBalance is the share of consecutive scheduled days that are not both
// high intensity. A plan with fewer than two scheduled days is fully balanced.
func PacingBalance(assignments []optimization.Assignment, intensity func(destinationID string) float64) float64 {
	scheduled := make([]optimization.Assignment, 0, len(assignments))
	for _, a := range assignments {
		if a.DestinationID != "" {
			scheduled = append(scheduled, a)
		}
	}
	if len(scheduled) < 2 {
		return constants.PercentageMultiplier
	}
	sort.SliceStable(scheduled, func(i, j int) bool { return scheduled[i].Date.Before(scheduled[j].Date) })

	balanced := 0
	for i := 1; i < len(scheduled); i++ {
		prev := intensity(scheduled[i-1].DestinationID) >= constants.HighIntensityThreshold
		cur := intensity(scheduled[i].DestinationID) >= constants.HighIntensityThreshold
		if !(prev && cur) {
			balanced++
		}
	}
	return mathutil.Round(mathutil.CalculatePercentage(float64(balanced), float64(len(scheduled)-1)))
}

// Benefits computes the full benefits breakdown of optimized against original.
func (in StrategyInput) Benefits(optimized []optimization.Assignment) optimization.Benefits {
	return optimization.Benefits{
		CrowdReductionPercent:   CrowdReduction(in.Assignments, optimized),
		PriorityCoveragePercent: PriorityCoverage(optimized, in.Ratings),
		PacingBalancePercent:    PacingBalance(optimized, in.intensity),
		EstimatedTimeSaved:      EstimatedTimeSaved(in.Assignments, optimized, in.Settings.MinutesSavedPerCrowdPoint),
	}
}
