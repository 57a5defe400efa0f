package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/park-planner/internal/crowd"
	"github.com/iwvelando/park-planner/pkg/constants"
	"go.uber.org/zap"
)

// CrowdConfig selects and tunes the crowd forecast source.
type CrowdConfig struct {
	Source        string           `yaml:"source,omitempty" mapstructure:"source"` // static, http, store
	Concurrency   int              `yaml:"concurrency,omitempty" mapstructure:"concurrency"`
	LookupTimeout time.Duration    `yaml:"lookupTimeout,omitempty" mapstructure:"lookupTimeout"`
	HTTP          CrowdHTTPConfig  `yaml:"http,omitempty" mapstructure:"http"`
	Redis         CrowdRedisConfig `yaml:"redis,omitempty" mapstructure:"redis"`
	Static        []ForecastConfig `yaml:"static,omitempty" mapstructure:"static"`
}

// CrowdHTTPConfig configures the remote forecast API.
type CrowdHTTPConfig struct {
	BaseURL       string        `yaml:"baseURL,omitempty" mapstructure:"baseURL"`
	APIKey        string        `yaml:"apiKey,omitempty" mapstructure:"apiKey"`
	Timeout       time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
	RatePerSecond float64       `yaml:"ratePerSecond,omitempty" mapstructure:"ratePerSecond"`
	Burst         int           `yaml:"burst,omitempty" mapstructure:"burst"`
}

// CrowdRedisConfig enables a Redis read-through cache when URL is set.
type CrowdRedisConfig struct {
	URL    string        `yaml:"url,omitempty" mapstructure:"url"`
	TTL    time.Duration `yaml:"ttl,omitempty" mapstructure:"ttl"`
	Prefix string        `yaml:"prefix,omitempty" mapstructure:"prefix"`
}

// ForecastConfig is one static forecast value.
type ForecastConfig struct {
	Destination string  `yaml:"destination" mapstructure:"destination" json:"destination" validate:"required"`
	Date        string  `yaml:"date" mapstructure:"date" json:"date" validate:"required"`
	CrowdLevel  float64 `yaml:"crowdLevel" mapstructure:"crowdLevel" json:"crowdLevel" validate:"gte=0,lte=10"`
}

// Normalize ensures canonical values are applied before validation.
func (c *CrowdConfig) Normalize() {
	c.Source = strings.ToLower(strings.TrimSpace(c.Source))
	if c.Source == "" {
		c.Source = constants.CrowdSourceStatic
	}
	c.HTTP.BaseURL = strings.TrimSpace(c.HTTP.BaseURL)
	c.Redis.URL = strings.TrimSpace(c.Redis.URL)
}

// GatewayOptions returns the fan-out options for crowd.NewGateway.
func (c CrowdConfig) GatewayOptions() crowd.Options {
	return crowd.Options{Concurrency: c.Concurrency, LookupTimeout: c.LookupTimeout}
}

// StaticEntries parses the static forecast table.
func (c CrowdConfig) StaticEntries() ([]crowd.Entry, error) {
	entries := make([]crowd.Entry, 0, len(c.Static))
	for i, f := range c.Static {
		date, err := parseDate(f.Date)
		if err != nil {
			return nil, fmt.Errorf("crowd.static[%d]: %w", i, err)
		}
		entries = append(entries, crowd.Entry{DestinationID: f.Destination, Date: date, CrowdLevel: f.CrowdLevel})
	}
	return entries, nil
}

// BuildSource assembles the configured crowd source. fallback serves the
// store source kind and may be nil otherwise. The returned close function
// releases the cache connection, if any.
func (c CrowdConfig) BuildSource(logger *zap.Logger, fallback crowd.Source) (crowd.Source, func() error, error) {
	noop := func() error { return nil }

	var source crowd.Source
	switch c.Source {
	case constants.CrowdSourceStatic:
		entries, err := c.StaticEntries()
		if err != nil {
			return nil, noop, err
		}
		source = crowd.NewStaticSource(entries)
	case constants.CrowdSourceHTTP:
		s, err := crowd.NewHTTPSource(logger, crowd.HTTPOptions{
			BaseURL:       c.HTTP.BaseURL,
			APIKey:        c.HTTP.APIKey,
			Timeout:       c.HTTP.Timeout,
			RatePerSecond: c.HTTP.RatePerSecond,
			Burst:         c.HTTP.Burst,
		})
		if err != nil {
			return nil, noop, err
		}
		source = s
	case constants.CrowdSourceStore:
		if fallback == nil {
			return nil, noop, fmt.Errorf("crowd source %q requires a store", c.Source)
		}
		source = fallback
	default:
		return nil, noop, fmt.Errorf("unsupported crowd source %q", c.Source)
	}

	if c.Redis.URL == "" {
		return source, noop, nil
	}
	cache, err := crowd.NewRedisCache(logger, source, crowd.RedisOptions{
		URL:    c.Redis.URL,
		TTL:    c.Redis.TTL,
		Prefix: c.Redis.Prefix,
	})
	if err != nil {
		return nil, noop, err
	}
	return cache, cache.Close, nil
}
