package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvManifestTimeout   = "DOCFLOW_MANIFEST_TIMEOUT"
	EnvManifestUserAgent = "DOCFLOW_MANIFEST_USER_AGENT"
	EnvManifestMaxLength = "DOCFLOW_MANIFEST_MAX_LENGTH"
)

// ManifestConfig holds IIIF manifest client settings.
type ManifestConfig struct {
	Timeout   string `toml:"timeout"`
	UserAgent string `toml:"user_agent"`
	MaxLength int    `toml:"max_length"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *ManifestConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
// The default user agent carries version.
func (c *ManifestConfig) Finalize(version string) error {
	c.loadDefaults(version)
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ManifestConfig) Merge(overlay *ManifestConfig) {
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.UserAgent != "" {
		c.UserAgent = overlay.UserAgent
	}
	if overlay.MaxLength != 0 {
		c.MaxLength = overlay.MaxLength
	}
}

func (c *ManifestConfig) loadDefaults(version string) {
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if c.UserAgent == "" {
		c.UserAgent = "docflow/" + version
	}
	if c.MaxLength == 0 {
		c.MaxLength = 100
	}
}

func (c *ManifestConfig) loadEnv() {
	if v := os.Getenv(EnvManifestTimeout); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(EnvManifestUserAgent); v != "" {
		c.UserAgent = v
	}
	if v := os.Getenv(EnvManifestMaxLength); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxLength = n
		}
	}
}

func (c *ManifestConfig) validate() error {
	if d, err := time.ParseDuration(c.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid timeout %q", c.Timeout)
	}
	if c.MaxLength < 1 {
		return fmt.Errorf("invalid max_length: %d", c.MaxLength)
	}
	return nil
}
