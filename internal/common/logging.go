package common

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	LogFormatEnv = "TIMETABLE_LOG_FORMAT"
	LogDebugEnv  = "TIMETABLE_DEBUG"
)

// NewLogger builds the process logger. JSON output is used only when
// format is "JSON", anything else gets the human readable console writer.
func NewLogger(out io.Writer, format string, debug bool) zerolog.Logger {
	var logger zerolog.Logger
	if format == "JSON" {
		logger = zerolog.New(out)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}

	logger = logger.With().Timestamp().Logger()

	if debug {
		return logger.Level(zerolog.DebugLevel)
	}
	return logger.Level(zerolog.InfoLevel)
}

// SetupLogging installs the global logger from the environment.
func SetupLogging(out io.Writer) {
	log.Logger = NewLogger(out, os.Getenv(LogFormatEnv), os.Getenv(LogDebugEnv) == "YES")
}
