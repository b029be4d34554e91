// Package clickhouse provides a ClickHouse client implementation
package clickhouse

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"time"
)

// Static errors for configuration validation
var (
	ErrURLRequired   = errors.New("URL is required")
	ErrInvalidScheme = errors.New("URL scheme must be http or https")
)

// Config contains ClickHouse connection settings
type Config struct {
	URL           string        `yaml:"url" validate:"required,url"`
	Username      string        `yaml:"username"`
	Password      string        `yaml:"password"`
	Database      string        `yaml:"database"`
	QueryTimeout  time.Duration `yaml:"queryTimeout"`
	InsertTimeout time.Duration `yaml:"insertTimeout"`
	Debug         bool          `yaml:"debug"`
	KeepAlive     time.Duration `yaml:"keepAlive"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.URL == "" {
		return ErrURLRequired
	}

	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %q", ErrInvalidScheme, u.Scheme)
	}

	return nil
}

// SetDefaults sets default values for the configuration
func (c *Config) SetDefaults() {
	if c.QueryTimeout == 0 {
		c.QueryTimeout = 30 * time.Second
	}

	if c.InsertTimeout == 0 {
		c.InsertTimeout = 5 * time.Minute
	}

	if c.KeepAlive == 0 {
		c.KeepAlive = 30 * time.Second
	}
}

// ApplyEnv overlays the HOST_CLICKHOUSE, PORT_CLICKHOUSE, USERNAME_CLICKHOUSE and
// PASSWORD_CLICKHOUSE environment variables onto the configuration.
// Host and port replace the corresponding parts of URL; when URL is empty an
// http URL is built from them.
func (c *Config) ApplyEnv() {
	host := os.Getenv("HOST_CLICKHOUSE")
	port := os.Getenv("PORT_CLICKHOUSE")

	if host != "" || port != "" {
		u, err := url.Parse(c.URL)
		if err != nil || c.URL == "" {
			u = &url.URL{Scheme: "http", Host: "localhost:8123"}
		}

		h, p, splitErr := net.SplitHostPort(u.Host)
		if splitErr != nil {
			h, p = u.Host, ""
		}

		if host != "" {
			h = host
		}

		if port != "" {
			p = port
		}

		if p != "" {
			u.Host = net.JoinHostPort(h, p)
		} else {
			u.Host = h
		}

		c.URL = u.String()
	}

	if v := os.Getenv("USERNAME_CLICKHOUSE"); v != "" {
		c.Username = v
	}

	if v := os.Getenv("PASSWORD_CLICKHOUSE"); v != "" {
		c.Password = v
	}
}
