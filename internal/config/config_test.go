package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/park-planner/internal/crowd"
	"github.com/iwvelando/park-planner/internal/trip"
	"github.com/iwvelando/park-planner/pkg/constants"
	"go.uber.org/zap"
)

const sampleYAML = `
logging:
  level: DEBUG
output:
  format: JSON
optimizer:
  strategy: Crowd
  fallbackCrowdScore: 4
  intensity:
    Thrill-Park: 6
crowd:
  source: static
  lookupTimeout: 500ms
  static:
    - destination: A
      date: 2025-03-02
      crowdLevel: 7.5
    - destination: B
      date: "2025-03-02"
      crowdLevel: 2
store:
  driver: sqlite
  dsn: /tmp/planner.db
trip:
  id: spring
  name: Spring break
  start: 2025-03-01
  end: "2025-03-03"
  days:
    - id: d1
      date: "2025-03-01"
      destination: A
      label: arrival
    - id: d2
      date: "2025-03-02"
      destination: A
    - id: d3
      date: "2025-03-03"
      locked: true
  destinations:
    - id: A
      name: Alpha
      type: thrill-park
ratings:
  - destination: A
    activity: coaster
    averageRating: 4.5
    mustDoCount: 3
    consensus: conflict
`

func TestLoadConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		configPath string
		wantError  bool
	}{
		{
			name:       "Non-existent config file",
			configPath: "nonexistent.yaml",
			wantError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfiguration(tt.configPath)
			if tt.wantError {
				if err == nil {
					t.Errorf("LoadConfiguration() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("LoadConfiguration() error = %v", err)
				return
			}
			if config == nil {
				t.Errorf("LoadConfiguration() returned nil config")
			}
		})
	}
}

func TestLoadConfigurationFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	conf, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if conf.Trip == nil || conf.Trip.ID != "spring" {
		t.Fatalf("trip not loaded: %+v", conf.Trip)
	}
	if conf.Trip.Start != "2025-03-01" {
		t.Errorf("unquoted date decoded as %q", conf.Trip.Start)
	}
	if conf.Crowd.Static[0].Date != "2025-03-02" {
		t.Errorf("unquoted static date decoded as %q", conf.Crowd.Static[0].Date)
	}
}

func TestLoadConfigurationFromReader(t *testing.T) {
	conf, err := LoadConfigurationFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}

	if conf.Logging.Level != "debug" {
		t.Errorf("logging level = %q, want debug", conf.Logging.Level)
	}
	if conf.Output.Format != constants.OutputFormatJSON {
		t.Errorf("output format = %q, want json", conf.Output.Format)
	}
	if conf.Optimizer.Strategy != constants.StrategyCrowd {
		t.Errorf("strategy = %q, want crowd", conf.Optimizer.Strategy)
	}
	if conf.Optimizer.FallbackCrowdScore != 4 {
		t.Errorf("fallback = %.2f, want 4", conf.Optimizer.FallbackCrowdScore)
	}
	if conf.Optimizer.FlexibilityWeight != constants.DefaultFlexibilityWeight {
		t.Errorf("flexibility weight default not applied: %.2f", conf.Optimizer.FlexibilityWeight)
	}
	if conf.Crowd.LookupTimeout != 500*time.Millisecond {
		t.Errorf("lookup timeout = %s, want 500ms", conf.Crowd.LookupTimeout)
	}
	if conf.Crowd.Concurrency != constants.DefaultLookupConcurrency {
		t.Errorf("concurrency default not applied: %d", conf.Crowd.Concurrency)
	}
	if conf.Crowd.Redis.TTL != constants.DefaultCacheTTL {
		t.Errorf("redis ttl default not applied: %s", conf.Crowd.Redis.TTL)
	}
	if len(conf.Ratings) != 1 || conf.Ratings[0].MustDoCount != 3 {
		t.Errorf("ratings not loaded: %+v", conf.Ratings)
	}
	if err := conf.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("PARKPLANNER_OUTPUT_FORMAT", "csv")
	t.Setenv("PARKPLANNER_OPTIMIZER_STRATEGY", "pacing")

	conf, err := LoadConfigurationFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}
	if conf.Output.Format != constants.OutputFormatCSV {
		t.Errorf("output format = %q, want csv", conf.Output.Format)
	}
	if conf.Optimizer.Strategy != constants.StrategyPacing {
		t.Errorf("strategy = %q, want pacing", conf.Optimizer.Strategy)
	}
}

func TestDefaultConfiguration(t *testing.T) {
	conf := DefaultConfiguration()
	if conf.Output.Format != constants.OutputFormatPretty {
		t.Errorf("output format = %q", conf.Output.Format)
	}
	if conf.Store.Driver != constants.StoreDriverMemory {
		t.Errorf("store driver = %q", conf.Store.Driver)
	}
	if conf.Crowd.Source != constants.CrowdSourceStatic {
		t.Errorf("crowd source = %q", conf.Crowd.Source)
	}
	if err := conf.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestOptimizerSettings(t *testing.T) {
	conf, err := LoadConfigurationFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}
	settings := conf.Optimizer.Settings()
	if settings.IntensityFor("thrill-park") != 6 {
		t.Errorf("configured intensity not applied: %.2f", settings.IntensityFor("thrill-park"))
	}
	if settings.IntensityFor("resort") != 1 {
		t.Errorf("built-in intensity lost: %.2f", settings.IntensityFor("resort"))
	}
	if settings.IntensityFor("unknown") != constants.DefaultIntensity {
		t.Errorf("default intensity = %.2f", settings.IntensityFor("unknown"))
	}
	if settings.MinutesSavedPerCrowdPoint != constants.DefaultMinutesSavedPerCrowdPoint {
		t.Errorf("minutes per point = %d", settings.MinutesSavedPerCrowdPoint)
	}
}

func TestTripConversion(t *testing.T) {
	conf, err := LoadConfigurationFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}
	tr, err := conf.Trip.ToTrip()
	if err != nil {
		t.Fatalf("ToTrip() error = %v", err)
	}
	if len(tr.Days) != 3 || tr.Days[0].Label != trip.LabelArrival || !tr.Days[2].Locked {
		t.Fatalf("unexpected days %+v", tr.Days)
	}
	if tr.Days[1].Label != "" {
		t.Errorf("unlabelled day should stay unlabelled, got %q", tr.Days[1].Label)
	}

	back := TripFromDomain(tr)
	if back.Start != "2025-03-01" || back.Days[0].Destination != "A" || back.Days[0].Label != "arrival" {
		t.Errorf("round trip lost data: %+v", back)
	}

	ratings, err := ToRatings(conf.Ratings)
	if err != nil {
		t.Fatalf("ToRatings() error = %v", err)
	}
	if ratings[0].Consensus != trip.ConsensusConflict {
		t.Errorf("consensus = %q", ratings[0].Consensus)
	}

	bad := *conf.Trip
	bad.Days = append([]DayConfig(nil), conf.Trip.Days...)
	bad.Days[1].Label = "holiday"
	if _, err := bad.ToTrip(); err == nil {
		t.Errorf("expected error for unknown label")
	}
	bad.Days[1].Label = ""
	bad.Days[1].Date = "next tuesday"
	if _, err := bad.ToTrip(); err == nil {
		t.Errorf("expected error for bad date")
	}
	if _, err := ToRatings([]RatingConfig{{Destination: "A", Consensus: "unanimous"}}); err == nil {
		t.Errorf("expected error for unknown consensus")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Configuration)
	}{
		{name: "output format", mutate: func(c *Configuration) { c.Output.Format = "xml" }},
		{name: "strategy", mutate: func(c *Configuration) { c.Optimizer.Strategy = "fastest" }},
		{name: "fallback range", mutate: func(c *Configuration) { c.Optimizer.FallbackCrowdScore = 12 }},
		{name: "http without url", mutate: func(c *Configuration) { c.Crowd.Source = constants.CrowdSourceHTTP }},
		{name: "unknown source", mutate: func(c *Configuration) { c.Crowd.Source = "psychic" }},
		{name: "sqlite without dsn", mutate: func(c *Configuration) { c.Store = StoreConfig{Driver: constants.StoreDriverSQLite} }},
		{name: "unknown driver", mutate: func(c *Configuration) { c.Store.Driver = "mongo" }},
		{name: "static level", mutate: func(c *Configuration) {
			c.Crowd.Static = []ForecastConfig{{Destination: "A", Date: "2025-03-01", CrowdLevel: 11}}
		}},
		{name: "trip without days", mutate: func(c *Configuration) { c.Trip = &TripConfig{ID: "x", Start: "2025-03-01", End: "2025-03-02"} }},
		{name: "rating consensus", mutate: func(c *Configuration) {
			c.Ratings = []RatingConfig{{Destination: "A", AverageRating: 3, Consensus: "unanimous"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := DefaultConfiguration()
			tt.mutate(conf)
			if err := conf.Validate(); err == nil {
				t.Errorf("Validate() expected error")
			}
		})
	}
}

func TestValidateConfigurationWarnings(t *testing.T) {
	conf := DefaultConfiguration()
	conf.Trip = &TripConfig{
		ID:    "spring",
		Start: "2025-03-01",
		End:   "2025-03-02",
		Days: []DayConfig{
			{ID: "d1", Date: "2025-03-01", Destination: "A"},
			{ID: "d2", Date: "2025-03-01", Destination: "B"},
			{ID: "d3", Date: "2025-03-09", Destination: "A"},
		},
	}
	conf.Ratings = []RatingConfig{{Destination: "Z", AverageRating: 4}}
	conf.Crowd.Static = []ForecastConfig{{Destination: "A", Date: "2025-04-01", CrowdLevel: 3}}
	conf.Crowd.Redis.URL = "redis://localhost:6379/0"

	warnings := conf.ValidateConfiguration()
	if len(warnings) != 5 {
		t.Fatalf("expected 5 warnings, got %d: %v", len(warnings), warnings)
	}
	for _, w := range warnings {
		t.Logf("warning: %s", w)
	}

	if got := DefaultConfiguration().ValidateConfiguration(); len(got) != 0 {
		t.Errorf("defaults should not warn: %v", got)
	}
}

func TestBuildSource(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	conf := DefaultConfiguration()
	conf.Crowd.Static = []ForecastConfig{{Destination: "A", Date: "2025-03-01", CrowdLevel: 3}}
	source, closeFn, err := conf.Crowd.BuildSource(logger, nil)
	if err != nil {
		t.Fatalf("static source: %v", err)
	}
	defer closeFn()
	level, ok, err := source.CrowdLevel(ctx, "A", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	if err != nil || !ok || level != 3 {
		t.Fatalf("static lookup = %.2f, %v, %v", level, ok, err)
	}

	conf.Crowd.Source = constants.CrowdSourceStore
	if _, _, err := conf.Crowd.BuildSource(logger, nil); err == nil {
		t.Errorf("store source without a store should fail")
	}
	fallback := crowd.SourceFunc(func(context.Context, string, time.Time) (float64, bool, error) { return 1, true, nil })
	if _, _, err := conf.Crowd.BuildSource(logger, fallback); err != nil {
		t.Errorf("store source: %v", err)
	}

	conf.Crowd.Source = constants.CrowdSourceHTTP
	conf.Crowd.HTTP.BaseURL = "http://forecast.invalid"
	if _, _, err := conf.Crowd.BuildSource(logger, nil); err != nil {
		t.Errorf("http source: %v", err)
	}

	conf.Crowd.Redis.URL = "redis://127.0.0.1:1/0"
	cached, closeCache, err := conf.Crowd.BuildSource(logger, nil)
	if err != nil {
		t.Fatalf("cached source: %v", err)
	}
	if _, ok := cached.(*crowd.RedisCache); !ok {
		t.Errorf("expected redis cache wrapper, got %T", cached)
	}
	if err := closeCache(); err != nil {
		t.Errorf("close cache: %v", err)
	}

	conf.Crowd.Source = "psychic"
	if _, _, err := conf.Crowd.BuildSource(logger, nil); err == nil {
		t.Errorf("unknown source should fail")
	}
}

func TestExampleConfiguration(t *testing.T) {
	conf, err := LoadConfiguration(filepath.Join("..", "..", "config.yaml.example"))
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if err := conf.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if warnings := conf.ValidateConfiguration(); len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if conf.Trip == nil || len(conf.Trip.Days) != 4 {
		t.Fatalf("expected the example trip with 4 days, got %+v", conf.Trip)
	}
	if conf.Crowd.LookupTimeout != 2*time.Second {
		t.Errorf("lookup timeout = %v, want 2s", conf.Crowd.LookupTimeout)
	}
}
