package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iwvelando/park-planner/internal/config"
	"github.com/iwvelando/park-planner/internal/planner"
	"github.com/iwvelando/park-planner/pkg/constants"
	"github.com/iwvelando/park-planner/pkg/datetime"
	"github.com/iwvelando/park-planner/pkg/optimization"
	"github.com/iwvelando/park-planner/pkg/output"
	"github.com/iwvelando/park-planner/pkg/testutil"
	"go.uber.org/zap"
)

const testConfigPath = "../test_config.yaml"

// runConfig loads the fixture and optimizes its trip exactly as main() does.
func runConfig(t *testing.T, strategy string) *optimization.Result {
	t.Helper()
	logger := zap.NewNop()
	ctx := context.Background()

	conf, err := config.LoadConfiguration(testConfigPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if warnings := conf.ValidateConfiguration(); len(warnings) != 0 {
		t.Fatalf("unexpected configuration warnings: %v", warnings)
	}

	p, err := planner.New(ctx, logger, conf)
	if err != nil {
		t.Fatalf("planner.New() error = %v", err)
	}
	defer p.Close()

	req, err := p.Request(ctx, "", strategy)
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	result, err := p.Runner.Run(ctx, req)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return result
}

// TestMainIntegrationBaseline checks the invariants every run over the
// fixture trip must hold.
func TestMainIntegrationBaseline(t *testing.T) {
	result := runConfig(t, "")

	if result.TripID != "orlando-2025" {
		t.Errorf("Expected trip orlando-2025, got %s", result.TripID)
	}
	if len(result.Original) != 7 {
		t.Fatalf("Expected 7 original assignments, got %d", len(result.Original))
	}
	if len(result.Alternatives) != 4 {
		t.Fatalf("Expected 4 alternatives, got %d", len(result.Alternatives))
	}

	seen := make(map[string]bool)
	for i, alt := range result.Alternatives {
		seen[alt.Strategy] = true
		if i > 0 && alt.Score > result.Alternatives[i-1].Score {
			t.Errorf("Alternative %d (%s) outranks its predecessor", i, alt.Strategy)
		}
		if alt.Score < 0 || alt.Score > 100 {
			t.Errorf("%s: score %.2f outside [0,100]", alt.Strategy, alt.Score)
		}
		if alt.Confidence < 0 || alt.Confidence > 100 {
			t.Errorf("%s: confidence %.2f outside [0,100]", alt.Strategy, alt.Confidence)
		}
		if alt.Benefits.CrowdReductionPercent < 0 {
			t.Errorf("%s: negative crowd reduction", alt.Strategy)
		}
		if alt.ID == "" {
			t.Errorf("%s: missing alternative id", alt.Strategy)
		}
		validateFixedDays(t, alt)
	}
	for _, name := range []string{constants.StrategyCrowd, constants.StrategyPriority, constants.StrategyConsensus, constants.StrategyPacing} {
		if !seen[name] {
			t.Errorf("Missing %s alternative", name)
		}
	}

	best, ok := result.Recommended()
	if !ok {
		t.Fatal("Expected a recommended alternative")
	}
	if result.Confidence != best.Confidence {
		t.Errorf("Result confidence %.2f differs from recommended %.2f", result.Confidence, best.Confidence)
	}
	if len(result.Reasoning) == 0 {
		t.Error("Expected run-level reasoning")
	}

	for _, w := range result.Warnings {
		if w.Kind != optimization.WarningDataGap {
			continue
		}
		if w.DestinationID != "DS" || datetime.FormatDate(w.Date) != "2025-06-06" {
			t.Errorf("Unexpected data gap for %s on %s", w.DestinationID, datetime.FormatDate(w.Date))
		}
	}
}

// validateFixedDays checks that the arrival, the locked day and the
// departure keep their original destinations.
func validateFixedDays(t *testing.T, alt optimization.Alternative) {
	t.Helper()
	got := testutil.Destinations(alt.Assignments)
	if len(got) != 7 {
		t.Fatalf("%s: expected 7 assignments, got %d", alt.Strategy, len(got))
	}
	fixed := map[int]string{0: "MK", 2: "EP", 6: ""}
	for i, want := range fixed {
		if got[i] != want {
			t.Errorf("%s: day %d moved from %q to %q", alt.Strategy, i+1, want, got[i])
		}
	}
}

func TestCrowdStrategyNeverAddsCrowds(t *testing.T) {
	result := runConfig(t, constants.StrategyCrowd)

	alt := testutil.FindAlternative(result, constants.StrategyCrowd)
	if alt == nil {
		t.Fatal("Expected a crowd alternative")
	}

	total := func(assignments []optimization.Assignment) float64 {
		sum := 0.0
		for _, a := range assignments {
			if a.DestinationID != "" {
				sum += a.CrowdScore
			}
		}
		return sum
	}
	if before, after := total(result.Original), total(alt.Assignments); after > before {
		t.Errorf("Crowd total grew from %.1f to %.1f", before, after)
	}
	if alt.Benefits.EstimatedTimeSaved < 0 {
		t.Errorf("Negative time saved: %v", alt.Benefits.EstimatedTimeSaved)
	}
}

func TestOutputFormats(t *testing.T) {
	result := runConfig(t, "")

	for _, format := range []string{constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := output.Write(&buf, format, *result); err != nil {
				t.Fatalf("Write(%s) error = %v", format, err)
			}
			if buf.Len() == 0 {
				t.Fatalf("Write(%s) produced no output", format)
			}
			if format == constants.OutputFormatJSON {
				var decoded optimization.Result
				if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
					t.Fatalf("JSON output did not decode: %v", err)
				}
				if len(decoded.Alternatives) != len(result.Alternatives) {
					t.Errorf("Decoded %d alternatives, want %d", len(decoded.Alternatives), len(result.Alternatives))
				}
			}
			if format == constants.OutputFormatCSV && !strings.Contains(buf.String(), "d1") {
				t.Errorf("CSV output missing day rows: %s", buf.String())
			}
		})
	}
}
