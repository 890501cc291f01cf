package shared

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/chipbench/chipbench/internal/config"
)

// SetupLogger configures zerolog with pretty console output
func SetupLogger(level string) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// SetupStructuredLogger configures zerolog for structured (JSON) output
func SetupStructuredLogger(level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	return zerolog.New(os.Stderr).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// LoggerFromConfig builds the logger the config asks for. The returned
// close function releases the log file, if one is in use.
func LoggerFromConfig(lc *config.LogSettings) (zerolog.Logger, func(), error) {
	noop := func() {}

	if lc.File != "" {
		f, err := os.OpenFile(lc.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return zerolog.Nop(), noop, fmt.Errorf("opening log file: %w", err)
		}
		zerolog.TimeFieldFormat = time.RFC3339Nano
		logger := zerolog.New(f).
			Level(parseLevel(lc.Level)).
			With().
			Timestamp().
			Logger()
		return logger, func() { _ = f.Close() }, nil
	}

	if lc.Format == "json" {
		return SetupStructuredLogger(lc.Level), noop, nil
	}
	return SetupLogger(lc.Level), noop, nil
}

func parseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
