// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/park-planner/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	switch format {
	case constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON:
		return nil
	}
	return fmt.Errorf("expected output format of %s, %s or %s, got %s",
		constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON, format)
}

// ValidateStrategy checks a strategy name. Empty selects every strategy.
func ValidateStrategy(strategy string) error {
	switch strategy {
	case "", constants.StrategyCrowd, constants.StrategyPriority, constants.StrategyConsensus, constants.StrategyPacing:
		return nil
	}
	return fmt.Errorf("expected strategy of %s, %s, %s or %s, got %s",
		constants.StrategyCrowd, constants.StrategyPriority, constants.StrategyConsensus, constants.StrategyPacing, strategy)
}
