package planner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/iwvelando/park-planner/internal/config"
	"github.com/iwvelando/park-planner/internal/store"
	"github.com/iwvelando/park-planner/pkg/testutil"
	"go.uber.org/zap"
)

const staticConfig = `
optimizer:
  strategy: crowd
crowd:
  source: static
  static:
    - destination: A
      date: 2025-03-02
      crowdLevel: 8
    - destination: B
      date: 2025-03-02
      crowdLevel: 2
trip:
  id: weekend
  start: 2025-03-01
  end: 2025-03-03
  days:
    - id: d1
      date: 2025-03-01
      destination: A
      label: arrival
    - id: d2
      date: 2025-03-02
      destination: A
    - id: d3
      date: 2025-03-03
      destination: A
      label: departure
  destinations:
    - id: A
      type: thrill-park
    - id: B
      type: resort
ratings:
  - destination: B
    averageRating: 4
    mustDoCount: 1
`

func loadConfig(t *testing.T, yaml string) *config.Configuration {
	t.Helper()
	conf, err := config.LoadConfigurationFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}
	return conf
}

func TestNewSeedsConfiguredTrip(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, zap.NewNop(), loadConfig(t, staticConfig))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() {
		if err := p.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	}()

	req, err := p.Request(ctx, "", "")
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if req.Trip.ID != "weekend" || req.Strategy != "crowd" {
		t.Fatalf("unexpected request: trip %q strategy %q", req.Trip.ID, req.Strategy)
	}
	if len(req.Ratings) != 1 {
		t.Fatalf("expected 1 rating, got %d", len(req.Ratings))
	}

	result, err := p.Runner.Run(ctx, req)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	alt := testutil.FindAlternative(result, "crowd")
	if alt == nil {
		t.Fatal("expected a crowd alternative")
	}
	if got := strings.Join(testutil.Destinations(alt.Assignments), ","); got != "A,B,A" {
		t.Errorf("assignments = %s, want A,B,A", got)
	}
}

func TestRequestStrategyOverrideAndMissingTrip(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, nil, loadConfig(t, staticConfig))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer p.Close()

	req, err := p.Request(ctx, "weekend", "pacing")
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if req.Strategy != "pacing" {
		t.Errorf("strategy = %q, want pacing", req.Strategy)
	}

	if _, err := p.Request(ctx, "nope", ""); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRequestWithoutTrip(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer p.Close()

	if _, err := p.Request(ctx, "", ""); err == nil {
		t.Fatal("expected error without a trip")
	}
}

func TestStoreBackedForecasts(t *testing.T) {
	ctx := context.Background()
	conf := loadConfig(t, "crowd:\n  source: store\n")
	p, err := New(ctx, zap.NewNop(), conf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer p.Close()

	tr, err := testutil.SampleTrip().ToTrip()
	if err != nil {
		t.Fatalf("sample trip: %v", err)
	}
	if err := p.Store.SaveTrip(ctx, tr); err != nil {
		t.Fatalf("SaveTrip() error = %v", err)
	}
	if err := p.Store.SaveForecasts(ctx, testutil.SampleForecast(t)); err != nil {
		t.Fatalf("SaveForecasts() error = %v", err)
	}

	req, err := p.Request(ctx, testutil.SampleTripID, "crowd")
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	result, err := p.Runner.Run(ctx, req)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected no data gaps, got %+v", result.Warnings)
	}
	alt := testutil.FindAlternative(result, "crowd")
	if got := strings.Join(testutil.Destinations(alt.Assignments), ","); got != "A,B,C,A,A" {
		t.Errorf("assignments = %s, want A,B,C,A,A", got)
	}
}

func TestNewRejectsInvalidConfiguration(t *testing.T) {
	conf := loadConfig(t, "store:\n  driver: sqlite\n")
	if _, err := New(context.Background(), nil, conf); err == nil {
		t.Fatal("expected error for sqlite without dsn")
	}
}
