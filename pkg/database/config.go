package database

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// DefaultURL points at a local ledger database.
const DefaultURL = "postgres://docflow@localhost:5432/docflow?sslmode=disable"

// Config describes the run ledger connection. The ledger runs one short
// transaction per conversion, so a single pool size bounds both open and
// idle connections. A disabled config is never validated.
type Config struct {
	Enabled  bool   `toml:"enabled"`
	URL      string `toml:"url"`
	MaxConns int    `toml:"max_conns"`
	Timeout  string `toml:"timeout"`
}

// Env names the environment variables that override Config fields.
type Env struct {
	Enabled  string
	URL      string
	MaxConns string
	Timeout  string
}

// TimeoutDuration bounds the startup ping.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.MaxConns == 0 {
		c.MaxConns = 2
	}
	if c.Timeout == "" {
		c.Timeout = "5s"
	}

	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Enabled {
		c.Enabled = true
	}
	if overlay.URL != "" {
		c.URL = overlay.URL
	}
	if overlay.MaxConns != 0 {
		c.MaxConns = overlay.MaxConns
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *Config) loadEnv(env *Env) {
	if v := lookup(env.Enabled); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Enabled = b
		}
	}
	if v := lookup(env.URL); v != "" {
		c.URL = v
	}
	if v := lookup(env.MaxConns); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConns = n
		}
	}
	if v := lookup(env.Timeout); v != "" {
		c.Timeout = v
	}
}

func (c *Config) validate() error {
	if !c.Enabled {
		return nil
	}

	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return fmt.Errorf("invalid url: scheme %q, want postgres", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url: host required")
	}
	if c.MaxConns < 1 {
		return fmt.Errorf("invalid max_conns: %d", c.MaxConns)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}

func lookup(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
