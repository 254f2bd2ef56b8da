// Package config resolves docflow settings from defaults, TOML files,
// environment variables, and command flags, in increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/Grand-Siecle/cli-renameImgXMLALTO/pkg/database"
	"github.com/Grand-Siecle/cli-renameImgXMLALTO/pkg/storage"
)

const (
	BaseConfigFile       = "docflow.toml"
	OverlayConfigPattern = "docflow.%s.toml"

	EnvDocflowEnv             = "DOCFLOW_ENV"
	EnvDocflowShutdownTimeout = "DOCFLOW_SHUTDOWN_TIMEOUT"
	EnvDocflowVersion         = "DOCFLOW_VERSION"
)

var databaseEnv = &database.Env{
	Enabled:  "DOCFLOW_DB_ENABLED",
	URL:      "DOCFLOW_DB_URL",
	MaxConns: "DOCFLOW_DB_MAX_CONNS",
	Timeout:  "DOCFLOW_DB_TIMEOUT",
}

var storageEnv = &storage.Env{
	Enabled:          "DOCFLOW_STORAGE_ENABLED",
	ContainerName:    "DOCFLOW_STORAGE_CONTAINER_NAME",
	ConnectionString: "DOCFLOW_STORAGE_CONNECTION_STRING",
	PublishPrefix:    "DOCFLOW_STORAGE_PUBLISH_PREFIX",
}

// Config is the root configuration for docflow.
type Config struct {
	Convert         ConvertConfig   `toml:"convert"`
	Log             LogConfig       `toml:"log"`
	Manifest        ManifestConfig  `toml:"manifest"`
	Storage         storage.Config  `toml:"storage"`
	Database        database.Config `toml:"database"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the DOCFLOW_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvDocflowEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config, applies any environment overlay found beside
// it, and finalizes all values. An empty path looks for docflow.toml in the
// working directory and tolerates its absence; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	base := path
	if base == "" {
		base = BaseConfigFile
	}

	if _, err := os.Stat(base); err == nil {
		loaded, err := load(base)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if path != "" {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if overlay := overlayPath(base); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sections.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Convert.Merge(&overlay.Convert)
	c.Log.Merge(&overlay.Log)
	c.Manifest.Merge(&overlay.Manifest)
	c.Storage.Merge(&overlay.Storage)
	c.Database.Merge(&overlay.Database)
}

// Finalize applies defaults, environment overrides, and validation to every
// section. Load calls it; callers building a Config by hand call it directly.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Convert.Finalize(); err != nil {
		return fmt.Errorf("convert: %w", err)
	}
	if err := c.Log.Finalize(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.Manifest.Finalize(c.Version); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "10s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvDocflowShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvDocflowVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return &cfg, nil
}

// overlayPath returns docflow.<env>.toml beside base when DOCFLOW_ENV is set
// and the file exists.
func overlayPath(base string) string {
	env := os.Getenv(EnvDocflowEnv)
	if env == "" {
		return ""
	}

	path := filepath.Join(filepath.Dir(base), fmt.Sprintf(OverlayConfigPattern, strings.ToLower(env)))
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}
