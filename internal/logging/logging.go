// Package logging builds the zap loggers used by the engine and the CLI.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration
type Config struct {
	Level       string `json:"level"`
	Format      string `json:"format"` // "json" or "console"
	OutputPath  string `json:"output_path"`
	Development bool   `json:"development"`
}

// New creates a structured logger from config.
func New(config Config) (*zap.Logger, error) {
	var zapConfig zap.Config

	if config.Development {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	// Set log level
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if config.Level != "" {
		parsed, err := zap.ParseAtomicLevel(strings.ToLower(config.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", config.Level, err)
		}
		level = parsed
	}
	zapConfig.Level = level

	// Set output format
	switch config.Format {
	case "", "json":
		zapConfig.Encoding = "json"
	case "console":
		zapConfig.Encoding = "console"
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	default:
		return nil, fmt.Errorf("invalid log format %q", config.Format)
	}
	zapConfig.EncoderConfig.TimeKey = "ts"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// stdout is reserved for command output
	zapConfig.OutputPaths = []string{"stderr"}
	if config.OutputPath != "" {
		zapConfig.OutputPaths = []string{config.OutputPath}
	}
	zapConfig.ErrorOutputPaths = []string{"stderr"}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger.With(zap.String("service", "partpicker")), nil
}

// OrNop returns logger, or a no-op logger when it is nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
