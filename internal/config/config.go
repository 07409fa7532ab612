// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Environment variables read by ApplyEnv.
const (
	EnvDatabaseURL = "PARTPICKER_DATABASE_URL"
	EnvCatalog     = "PARTPICKER_CATALOG"
	EnvLogLevel    = "PARTPICKER_LOG_LEVEL"
	EnvMinStock    = "PARTPICKER_MIN_STOCK"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Catalog source; at most one may be set
	DatabaseURL string `json:"database_url,omitempty" validate:"omitempty,url"` // PostgreSQL connection URL
	CatalogPath string `json:"catalog_path,omitempty"`                          // Path to a JSON catalog snapshot

	// Resolution
	Quantity int `json:"quantity,omitempty" validate:"gte=0"`       // Order quantity used for price tiers
	MinStock int `json:"min_stock,omitempty" validate:"gte=0"`      // Extra stock floor over the family default
	Workers  int `json:"workers,omitempty" validate:"gte=0,lte=64"` // Concurrent BOM resolutions

	// Output
	LogLevel  string `json:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	LogFormat string `json:"log_format,omitempty" validate:"omitempty,oneof=json console"`
	Verbose   bool   `json:"verbose,omitempty"` // Print selections and traces to stdout
}

// Defaults returns the values used when neither the file, the environment nor a flag sets one.
func Defaults() Config {
	return Config{
		Quantity:  1,
		Workers:   4,
		LogLevel:  "info",
		LogFormat: "console",
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names, as they appear in the config file
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check that a catalog source is set since that is handled
// by the command after merging.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config error: '%s' failed '%s' validation (value %v)", fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config error: %w", err)
	}

	// Validate mutually exclusive fields
	if c.DatabaseURL != "" && c.CatalogPath != "" {
		return fmt.Errorf("config error: 'database_url' and 'catalog_path' are mutually exclusive")
	}

	if c.CatalogPath != "" {
		if _, err := os.Stat(c.CatalogPath); os.IsNotExist(err) {
			return fmt.Errorf("config error: catalog file not found: %s", c.CatalogPath)
		}
	}

	return nil
}

// ApplyEnv overrides fields from the environment. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvDatabaseURL); ok && v != "" {
		c.DatabaseURL = v
	}
	if v, ok := lookup(EnvCatalog); ok && v != "" {
		c.CatalogPath = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookup(EnvMinStock); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvMinStock, v, err)
		}
		c.MinStock = n
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.DatabaseURL == "" && result.CatalogPath == "" {
		result.DatabaseURL = defaults.DatabaseURL
		result.CatalogPath = defaults.CatalogPath
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.LogFormat == "" {
		result.LogFormat = defaults.LogFormat
	}

	// Int fields: use default if zero
	if result.Quantity == 0 {
		result.Quantity = defaults.Quantity
	}
	if result.MinStock == 0 {
		result.MinStock = defaults.MinStock
	}
	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
