// Package logger provides a configured zerolog instance.
package logger

import (
	"github.com/ilindan-dev/notification-gateway/internal/config"
	"github.com/rs/zerolog"
	"os"
)

// NewLogger creates a new configured instance of zerolog.Logger.
// It reads the log level from the config and adds default fields like service name and caller.
func NewLogger(cfg *config.Config) (*zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Logger.Level)
	if err != nil || cfg.Logger.Level == "" {
		level = zerolog.InfoLevel
	}

	// Release mode logs JSON for the log collector; anything else gets the console writer.
	var logger zerolog.Logger
	if cfg.HTTP.GinMode == "release" {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	logger = logger.With().
		Timestamp().
		Str("service", "notification-gateway").
		Str("app", cfg.App.Name).
		Caller().
		Logger().
		Level(level)

	return &logger, nil
}
