// Package constants provides shared constants for the park-planner application.
package constants

import "time"

// DateLayout is the calendar-date format used in config files, API payloads
// and output.
const DateLayout = "2006-01-02"

// Crowd scale constants
const (
	// MinCrowdScore is an empty park.
	MinCrowdScore = 0.0

	// MaxCrowdScore is peak congestion. Derived scores are MaxCrowdScore - crowd.
	MaxCrowdScore = 10.0

	// DefaultFallbackCrowdScore is used whenever no forecast exists for a
	// (destination, date) pair. It sits at the midpoint so a missing value
	// neither favours nor penalises a destination.
	DefaultFallbackCrowdScore = 5.0
)

// Optimizer defaults
const (
	// DefaultFlexibilityWeight is the confidence weight given to the share of
	// reassignable days.
	DefaultFlexibilityWeight = 70.0

	// DefaultDataQualityWeight is the confidence weight given to the share of
	// assignments backed by a real forecast.
	DefaultDataQualityWeight = 30.0

	// DefaultMinutesSavedPerCrowdPoint converts crowd points avoided into an
	// estimated queue-time saving.
	DefaultMinutesSavedPerCrowdPoint = 12

	// DefaultIntensity is the energy weight for destination types missing from
	// the intensity table.
	DefaultIntensity = 3.0

	// HighIntensityThreshold marks a destination as physically demanding for
	// pacing balance.
	HighIntensityThreshold = 4.0

	// NeutralImprovementScore is the improvement score of an unchanged plan.
	NeutralImprovementScore = 50.0

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Crowd gateway defaults
const (
	// DefaultLookupConcurrency bounds concurrent forecast lookups per run.
	DefaultLookupConcurrency = 8

	// DefaultLookupTimeout bounds a single forecast lookup.
	DefaultLookupTimeout = 2 * time.Second

	// DefaultHTTPTimeout is the client timeout for the HTTP forecast source.
	DefaultHTTPTimeout = 10 * time.Second

	// DefaultRatePerSecond throttles the HTTP forecast source.
	DefaultRatePerSecond = 20.0

	// DefaultRateBurst is the burst allowance of the HTTP forecast source.
	DefaultRateBurst = 5

	// DefaultCacheTTL is how long cached forecasts live in Redis.
	DefaultCacheTTL = 6 * time.Hour

	// DefaultCachePrefix namespaces forecast keys in Redis.
	DefaultCachePrefix = "crowd"
)

// Crowd source kinds
const (
	CrowdSourceStatic = "static"
	CrowdSourceHTTP   = "http"
	CrowdSourceStore  = "store"
)

// Store drivers
const (
	StoreDriverMemory   = "memory"
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the machine-readable output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix prefixes environment overrides read by viper.
	EnvPrefix = "PARKPLANNER"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxRequestSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxRequestSizeBytes int64 = 256 * 1024
)

// Strategy names
const (
	StrategyCrowd     = "crowd"
	StrategyPriority  = "priority"
	StrategyConsensus = "consensus"
	StrategyPacing    = "pacing"
)
