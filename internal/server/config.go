package server

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/iwvelando/park-planner/internal/config"
	"github.com/iwvelando/park-planner/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of the planner HTTP service. The optimizer itself
// is configured by the planner file that PlannerConfig points at.
type Config struct {
	Address string `yaml:"address"`
	// MaxRequestSize caps request bodies, e.g. "256KiB" or "1MB".
	MaxRequestSize string               `yaml:"maxRequestSize"`
	PlannerConfig  string               `yaml:"plannerConfig"`
	Logging        config.LoggingConfig `yaml:"logging"`

	requestBytes int64
	// dir is the directory of the loaded file; relative planner paths
	// resolve against it.
	dir string
}

// LoadConfig reads the server file at path. A missing file, or an empty
// path, yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Address:      constants.DefaultServerAddress,
		requestBytes: constants.DefaultMaxRequestSizeBytes,
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read server config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}
	cfg.dir = filepath.Dir(path)

	if err := cfg.normalize(); err != nil {
		return nil, fmt.Errorf("invalid server config %s: %w", path, err)
	}
	return cfg, nil
}

// RequestSizeBytes returns the request body limit in bytes.
func (c *Config) RequestSizeBytes() int64 {
	return c.requestBytes
}

// PlannerConfigPath returns the planner file to load. A non-empty override
// is used as given; otherwise plannerConfig is resolved against the
// directory of the server file. Empty means the built-in planner defaults.
func (c *Config) PlannerConfigPath(override string) string {
	if p := strings.TrimSpace(override); p != "" {
		return p
	}
	if c.PlannerConfig == "" || filepath.IsAbs(c.PlannerConfig) || c.dir == "" {
		return c.PlannerConfig
	}
	return filepath.Join(c.dir, c.PlannerConfig)
}

func (c *Config) normalize() error {
	c.Address = strings.TrimSpace(c.Address)
	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}
	if _, _, err := net.SplitHostPort(c.Address); err != nil {
		return fmt.Errorf("address %q: %w", c.Address, err)
	}

	c.PlannerConfig = strings.TrimSpace(c.PlannerConfig)

	size, err := parseRequestSize(c.MaxRequestSize)
	if err != nil {
		return err
	}
	c.requestBytes = size
	return nil
}

// parseRequestSize reads a byte size such as "64KiB" or "2MB". Empty and
// zero sizes fall back to the default limit.
func parseRequestSize(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return constants.DefaultMaxRequestSizeBytes, nil
	}
	n, err := humanize.ParseBytes(value)
	if err != nil {
		return 0, fmt.Errorf("maxRequestSize %q: %w", value, err)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("maxRequestSize %q is too large", value)
	}
	if n == 0 {
		return constants.DefaultMaxRequestSizeBytes, nil
	}
	return int64(n), nil
}
