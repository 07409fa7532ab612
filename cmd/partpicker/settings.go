package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/partpicker/internal/catalog"
	"github.com/jonathan/partpicker/internal/config"
	"github.com/jonathan/partpicker/internal/db"
	"github.com/jonathan/partpicker/internal/logging"
	"github.com/jonathan/partpicker/internal/metrics"
	"github.com/jonathan/partpicker/internal/picker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Persistent flags shared by every subcommand
var (
	configPath  string
	dbURL       string
	catalogPath string
	minStock    int
	logLevel    string
	logFormat   string
	verbose     bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	flags.StringVar(&dbURL, "db-url", "", "PostgreSQL catalog URL (defaults to PARTPICKER_DATABASE_URL or DATABASE_URL)")
	flags.StringVar(&catalogPath, "catalog", "", "Path to a JSON catalog snapshot (alternative to --db-url)")
	flags.IntVar(&minStock, "min-stock", 0, "Require more stock than this, on top of the family default")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&logFormat, "log-format", "", "Log format: console or json")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Print plans, selections and traces")
}

// loadSettings merges, in increasing priority: defaults, the config file, the environment and
// explicitly set flags.
func loadSettings(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}

	// Only override if the flag was explicitly set
	flags := cmd.Flags()
	if flags.Changed("db-url") {
		cfg.DatabaseURL = dbURL
		cfg.CatalogPath = ""
	}
	if flags.Changed("catalog") {
		cfg.CatalogPath = catalogPath
		cfg.DatabaseURL = ""
	}
	if flags.Changed("min-stock") {
		cfg.MinStock = minStock
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = logFormat
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}

	if cfg.DatabaseURL == "" && cfg.CatalogPath == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

// openGateway returns the configured catalog and a function that releases it.
func openGateway(ctx context.Context, cfg config.Config) (catalog.Gateway, func(), error) {
	switch {
	case cfg.DatabaseURL != "":
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return database, database.Close, nil
	case cfg.CatalogPath != "":
		mem, err := catalog.LoadSnapshot(cfg.CatalogPath)
		if err != nil {
			return nil, nil, err
		}
		return mem, func() {}, nil
	}
	return nil, nil, fmt.Errorf("no catalog configured: set --db-url, --catalog, %s or %s", config.EnvDatabaseURL, config.EnvCatalog)
}

// setup loads settings and builds the engine every resolving command needs.
func setup(cmd *cobra.Command, rec *metrics.Recorder) (*picker.Engine, config.Config, *zap.Logger, func(), error) {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return nil, cfg, nil, nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, cfg, nil, nil, err
	}

	gw, closeGateway, err := openGateway(cmd.Context(), cfg)
	if err != nil {
		_ = logger.Sync()
		return nil, cfg, nil, nil, err
	}

	engine := picker.New(gw,
		picker.WithLogger(logger),
		picker.WithMetrics(rec),
		picker.WithMinStock(cfg.MinStock),
	)
	cleanup := func() {
		closeGateway()
		_ = logger.Sync()
	}
	return engine, cfg, logger, cleanup, nil
}

// writeJSON writes v as indented JSON to path, or to the command's stdout when path is empty.
func writeJSON(cmd *cobra.Command, v any, path string) error {
	jsonOutput, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output JSON: %w", err)
	}
	jsonOutput = append(jsonOutput, '\n')

	if path == "" {
		_, err := cmd.OutOrStdout().Write(jsonOutput)
		return err
	}

	// Ensure output directory exists
	outputDir := filepath.Dir(path)
	if outputDir != "" && outputDir != "." {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
		}
	}
	if err := os.WriteFile(path, jsonOutput, 0644); err != nil {
		return fmt.Errorf("failed to write output file %s: %w", path, err)
	}
	return nil
}
