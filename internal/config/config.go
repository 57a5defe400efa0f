// Package config defines the planner configuration and loads it from YAML
// files or readers, with PARKPLANNER_* environment overrides.
package config

import (
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/iwvelando/park-planner/pkg/constants"
	"github.com/iwvelando/park-planner/pkg/datetime"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for park-planner.
type Configuration struct {
	Logging   LoggingConfig   `yaml:"logging,omitempty" mapstructure:"logging"`
	Output    OutputConfig    `yaml:"output,omitempty" mapstructure:"output"`
	Optimizer OptimizerConfig `yaml:"optimizer,omitempty" mapstructure:"optimizer"`
	Crowd     CrowdConfig     `yaml:"crowd,omitempty" mapstructure:"crowd"`
	Store     StoreConfig     `yaml:"store,omitempty" mapstructure:"store"`
	Trip      *TripConfig     `yaml:"trip,omitempty" mapstructure:"trip"`
	Ratings   []RatingConfig  `yaml:"ratings,omitempty" mapstructure:"ratings"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json
}

// StoreConfig selects the trip store.
type StoreConfig struct {
	Driver string `yaml:"driver,omitempty" mapstructure:"driver"` // memory, sqlite, postgres
	DSN    string `yaml:"dsn,omitempty" mapstructure:"dsn"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}
	return decode(v)
}

// DefaultConfiguration returns the configuration used when a file sets nothing.
func DefaultConfiguration() *Configuration {
	v := newViper()
	conf, err := decode(v)
	if err != nil {
		// Defaults are static and always decode.
		panic(err)
	}
	return conf
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("optimizer.strategy", "")
	v.SetDefault("optimizer.fallbackCrowdScore", constants.DefaultFallbackCrowdScore)
	v.SetDefault("optimizer.flexibilityWeight", constants.DefaultFlexibilityWeight)
	v.SetDefault("optimizer.dataQualityWeight", constants.DefaultDataQualityWeight)
	v.SetDefault("optimizer.minutesSavedPerCrowdPoint", constants.DefaultMinutesSavedPerCrowdPoint)
	v.SetDefault("optimizer.defaultIntensity", constants.DefaultIntensity)
	v.SetDefault("crowd.source", constants.CrowdSourceStatic)
	v.SetDefault("crowd.concurrency", constants.DefaultLookupConcurrency)
	v.SetDefault("crowd.lookupTimeout", constants.DefaultLookupTimeout)
	v.SetDefault("crowd.http.baseURL", "")
	v.SetDefault("crowd.http.apiKey", "")
	v.SetDefault("crowd.http.timeout", constants.DefaultHTTPTimeout)
	v.SetDefault("crowd.http.ratePerSecond", constants.DefaultRatePerSecond)
	v.SetDefault("crowd.http.burst", constants.DefaultRateBurst)
	v.SetDefault("crowd.redis.url", "")
	v.SetDefault("crowd.redis.ttl", constants.DefaultCacheTTL)
	v.SetDefault("crowd.redis.prefix", constants.DefaultCachePrefix)
	v.SetDefault("store.driver", constants.StoreDriverMemory)
	v.SetDefault("store.dsn", "")
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	err := v.Unmarshal(&configuration, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		timeToDateStringHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	configuration.Normalize()
	return &configuration, nil
}

// timeToDateStringHook keeps unquoted YAML dates usable in string fields.
func timeToDateStringHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	if t, ok := data.(time.Time); ok {
		return datetime.FormatDate(t), nil
	}
	return data, nil
}

// Normalize canonicalizes enumerated values.
func (c *Configuration) Normalize() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	if c.Output.Format == "" {
		c.Output.Format = constants.OutputFormatPretty
	}
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	if c.Store.Driver == "" {
		c.Store.Driver = constants.StoreDriverMemory
	}
	c.Optimizer.Normalize()
	c.Crowd.Normalize()
}
