package optimizer

import (
	"fmt"
	"strings"

	"github.com/iwvelando/park-planner/pkg/constants"
)

// Settings tunes scoring and the strategy engines.
type Settings struct {
	// FallbackCrowdScore stands in for any missing forecast.
	FallbackCrowdScore float64
	// FlexibilityWeight and DataQualityWeight blend into the confidence value.
	FlexibilityWeight float64
	DataQualityWeight float64
	// MinutesSavedPerCrowdPoint converts avoided crowd points into queue time.
	MinutesSavedPerCrowdPoint int
	// Intensity is the static energy weight per destination type.
	Intensity map[string]float64
	// DefaultIntensity applies to types missing from Intensity.
	DefaultIntensity float64
}

// DefaultIntensityTable is the built-in energy weight per destination type.
func DefaultIntensityTable() map[string]float64 {
	return map[string]float64{
		"thrill-park":     5,
		"theme-park":      4,
		"water-park":      4,
		"studio-park":     3,
		"animal-park":     2,
		"resort":          1,
		"shopping":        1,
		"dining-district": 1,
	}
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		FallbackCrowdScore:        constants.DefaultFallbackCrowdScore,
		FlexibilityWeight:         constants.DefaultFlexibilityWeight,
		DataQualityWeight:         constants.DefaultDataQualityWeight,
		MinutesSavedPerCrowdPoint: constants.DefaultMinutesSavedPerCrowdPoint,
		Intensity:                 DefaultIntensityTable(),
		DefaultIntensity:          constants.DefaultIntensity,
	}
}

// Validate reports settings that would make scores meaningless.
func (s Settings) Validate() error {
	if s.FallbackCrowdScore < constants.MinCrowdScore || s.FallbackCrowdScore > constants.MaxCrowdScore {
		return fmt.Errorf("fallback crowd score %.2f must be within [%.0f, %.0f]",
			s.FallbackCrowdScore, constants.MinCrowdScore, constants.MaxCrowdScore)
	}
	if s.FlexibilityWeight < 0 || s.DataQualityWeight < 0 {
		return fmt.Errorf("confidence weights cannot be negative")
	}
	if s.FlexibilityWeight+s.DataQualityWeight > constants.PercentageMultiplier {
		return fmt.Errorf("confidence weights sum to %.2f, must not exceed 100", s.FlexibilityWeight+s.DataQualityWeight)
	}
	if s.MinutesSavedPerCrowdPoint < 0 {
		return fmt.Errorf("minutes saved per crowd point cannot be negative")
	}
	for kind, v := range s.Intensity {
		if v < 0 {
			return fmt.Errorf("intensity for %q cannot be negative", kind)
		}
	}
	return nil
}

// IntensityFor returns the energy weight of a destination type.
func (s Settings) IntensityFor(destinationType string) float64 {
	if v, ok := s.Intensity[strings.ToLower(strings.TrimSpace(destinationType))]; ok {
		return v
	}
	if s.DefaultIntensity > 0 {
		return s.DefaultIntensity
	}
	return constants.DefaultIntensity
}
