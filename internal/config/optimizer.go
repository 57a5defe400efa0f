package config

import (
	"strings"

	"github.com/iwvelando/park-planner/internal/optimizer"
)

// OptimizerConfig tunes strategy selection and scoring.
type OptimizerConfig struct {
	// Strategy is crowd, priority, consensus or pacing; empty runs all four.
	Strategy                  string             `yaml:"strategy,omitempty" mapstructure:"strategy"`
	FallbackCrowdScore        float64            `yaml:"fallbackCrowdScore,omitempty" mapstructure:"fallbackCrowdScore"`
	FlexibilityWeight         float64            `yaml:"flexibilityWeight,omitempty" mapstructure:"flexibilityWeight"`
	DataQualityWeight         float64            `yaml:"dataQualityWeight,omitempty" mapstructure:"dataQualityWeight"`
	MinutesSavedPerCrowdPoint int                `yaml:"minutesSavedPerCrowdPoint,omitempty" mapstructure:"minutesSavedPerCrowdPoint"`
	DefaultIntensity          float64            `yaml:"defaultIntensity,omitempty" mapstructure:"defaultIntensity"`
	Intensity                 map[string]float64 `yaml:"intensity,omitempty" mapstructure:"intensity"`
}

// Normalize ensures canonical values are applied before validation.
func (o *OptimizerConfig) Normalize() {
	if o == nil {
		return
	}
	o.Strategy = strings.ToLower(strings.TrimSpace(o.Strategy))
	if len(o.Intensity) == 0 {
		return
	}
	intensity := make(map[string]float64, len(o.Intensity))
	for kind, v := range o.Intensity {
		intensity[strings.ToLower(strings.TrimSpace(kind))] = v
	}
	o.Intensity = intensity
}

// Settings converts the configuration into optimizer settings. Configured
// intensities overlay the built-in table.
func (o OptimizerConfig) Settings() optimizer.Settings {
	intensity := optimizer.DefaultIntensityTable()
	for kind, v := range o.Intensity {
		intensity[kind] = v
	}
	return optimizer.Settings{
		FallbackCrowdScore:        o.FallbackCrowdScore,
		FlexibilityWeight:         o.FlexibilityWeight,
		DataQualityWeight:         o.DataQualityWeight,
		MinutesSavedPerCrowdPoint: o.MinutesSavedPerCrowdPoint,
		Intensity:                 intensity,
		DefaultIntensity:          o.DefaultIntensity,
	}
}
