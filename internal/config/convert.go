package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/Grand-Siecle/cli-renameImgXMLALTO/pkg/formatting"
)

const (
	EnvConvertDPI           = "DOCFLOW_DPI"
	EnvConvertWorkers       = "DOCFLOW_WORKERS"
	EnvConvertTempDir       = "DOCFLOW_TEMP_DIR"
	EnvConvertMaxMemberSize = "DOCFLOW_MAX_MEMBER_SIZE"
)

// ConvertConfig holds conversion run parameters. Workers of zero selects
// one less than the number of CPUs.
type ConvertConfig struct {
	DPI           int    `toml:"dpi"`
	Workers       int    `toml:"workers"`
	TempDir       string `toml:"temp_dir"`
	MaxMemberSize string `toml:"max_member_size"`
}

// MaxMemberSizeBytes returns MaxMemberSize as a byte count.
func (c *ConvertConfig) MaxMemberSizeBytes() int64 {
	n, _ := formatting.ParseBytes(c.MaxMemberSize)
	return n
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ConvertConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ConvertConfig) Merge(overlay *ConvertConfig) {
	if overlay.DPI != 0 {
		c.DPI = overlay.DPI
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.TempDir != "" {
		c.TempDir = overlay.TempDir
	}
	if overlay.MaxMemberSize != "" {
		c.MaxMemberSize = overlay.MaxMemberSize
	}
}

func (c *ConvertConfig) loadDefaults() {
	if c.DPI == 0 {
		c.DPI = 600
	}
	if c.MaxMemberSize == "" {
		c.MaxMemberSize = "1GB"
	}
}

func (c *ConvertConfig) loadEnv() {
	if v := os.Getenv(EnvConvertDPI); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DPI = n
		}
	}
	if v := os.Getenv(EnvConvertWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := os.Getenv(EnvConvertTempDir); v != "" {
		c.TempDir = v
	}
	if v := os.Getenv(EnvConvertMaxMemberSize); v != "" {
		c.MaxMemberSize = v
	}
}

func (c *ConvertConfig) validate() error {
	if c.DPI <= 0 {
		return fmt.Errorf("invalid dpi: %d", c.DPI)
	}
	if c.Workers < 0 {
		return fmt.Errorf("invalid workers: %d", c.Workers)
	}
	if _, err := formatting.ParseBytes(c.MaxMemberSize); err != nil {
		return fmt.Errorf("invalid max_member_size: %w", err)
	}
	if c.TempDir != "" {
		info, err := os.Stat(c.TempDir)
		if err != nil {
			return fmt.Errorf("invalid temp_dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("invalid temp_dir: %s is not a directory", c.TempDir)
		}
	}
	return nil
}
