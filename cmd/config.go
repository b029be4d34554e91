package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/ethpandaops/ga4ch/pkg/clickhouse"
	"github.com/ethpandaops/ga4ch/pkg/ga4"
	"github.com/ethpandaops/ga4ch/pkg/loader"
	"github.com/ethpandaops/ga4ch/pkg/reports"
	"github.com/ethpandaops/ga4ch/pkg/transform"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidLogLevel is returned when the logging level cannot be parsed
	ErrInvalidLogLevel = errors.New("invalid logging level")
)

// TransformConfig controls row conversion
type TransformConfig struct {
	// OnInvalidMetric is "fail" (abort the report) or "null" (insert NULL)
	OnInvalidMetric transform.Policy `yaml:"onInvalidMetric" default:"fail"`
}

// Config is the ga4ch configuration file
type Config struct {
	// Logging level
	Logging string `yaml:"logging" default:"info"`

	// MetricsAddr serves Prometheus metrics while a run is in progress when set
	MetricsAddr string `yaml:"metricsAddr"`

	ClickHouse clickhouse.Config `yaml:"clickhouse"`
	GA4        ga4.Config        `yaml:"ga4"`
	Loader     loader.Config     `yaml:"loader"`
	Transform  TransformConfig   `yaml:"transform"`

	// Report definitions (reports, disableBuiltins)
	Reports reports.Config `yaml:",inline"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Logging); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging)
	}

	if err := c.ClickHouse.Validate(); err != nil {
		return fmt.Errorf("clickhouse config validation failed: %w", err)
	}

	if err := c.GA4.Validate(); err != nil {
		return fmt.Errorf("ga4 config validation failed: %w", err)
	}

	if err := c.Transform.OnInvalidMetric.Validate(); err != nil {
		return fmt.Errorf("transform config validation failed: %w", err)
	}

	return nil
}

// LoadConfig loads configuration from a YAML file and overlays environment
// variables. A missing file is not an error so deployments can configure
// everything through the environment.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = "./config.yaml"
	}

	config := &Config{}

	if err := defaults.Set(config); err != nil {
		return nil, err
	}

	yamlFile, err := os.ReadFile(path) //nolint:gosec // User-provided config file path
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	if err == nil {
		if err := yaml.Unmarshal(yamlFile, config); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	config.ClickHouse.ApplyEnv()
	config.ClickHouse.SetDefaults()
	config.GA4.ApplyEnv()

	return config, nil
}
