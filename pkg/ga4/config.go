// Package ga4 fetches daily reports from the Google Analytics Data API.
package ga4

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Static errors for configuration validation
var (
	ErrPropertyIDRequired = errors.New("GA4 property ID is required")
	ErrInvalidPropertyID  = errors.New("GA4 property ID must be numeric")
)

// Config contains GA4 Data API settings
type Config struct {
	PropertyID string `yaml:"propertyId"`
	// CredentialsFile is a service account JSON key. When empty, Application
	// Default Credentials are used (GOOGLE_APPLICATION_CREDENTIALS).
	CredentialsFile string        `yaml:"credentialsFile"`
	Timeout         time.Duration `yaml:"timeout"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.PropertyID == "" {
		return ErrPropertyIDRequired
	}

	if _, err := strconv.ParseUint(c.PropertyID, 10, 64); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidPropertyID, c.PropertyID)
	}

	return nil
}

// ApplyEnv overlays PROPERTY_ID_GA4 onto the configuration
func (c *Config) ApplyEnv() {
	if v := os.Getenv("PROPERTY_ID_GA4"); v != "" {
		c.PropertyID = v
	}
}

// Property returns the resource name used by the Data API
func (c *Config) Property() string {
	return "properties/" + c.PropertyID
}
