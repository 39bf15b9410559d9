// Package logging carries the zerolog logger used across the ETL. Terminals
// get console output, everything else gets JSON lines.
//
//	ctx = logging.WithSource(ctx, "acnc")
//	logging.FromContext(ctx).Debug().Str("postcode", "2000").Msg("Querying register")
package logging

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// defaultLogger backs FromContext when a context carries no logger.
var defaultLogger = envLogger()

// envLogger builds the process logger before any configuration is loaded,
// honouring LOG_LEVEL, DEBUG, LOG_FORMAT and NO_COLOR.
func envLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	switch {
	case os.Getenv("LOG_LEVEL") != "":
		level = parseLevel(os.Getenv("LOG_LEVEL"))
	case os.Getenv("DEBUG") != "":
		level = zerolog.DebugLevel
	}

	var w io.Writer = os.Stderr
	if stderrIsTerminal() && os.Getenv("LOG_FORMAT") != "json" {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen, NoColor: os.Getenv("NO_COLOR") != ""}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Default returns the process logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process logger, including zerolog's global one.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// Debug starts a debug event on the process logger.
func Debug() *zerolog.Event {
	return defaultLogger.Debug()
}

// Info starts an info event on the process logger.
func Info() *zerolog.Event {
	return defaultLogger.Info()
}

func stderrIsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
