package logger

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger defines the interface for logging messages.
type Logger interface {
	Error(msg string, err error)
	Warn(msg string)
	Info(msg string)
	Debug(msg string)
}

type zeroLogger struct {
	logger zerolog.Logger
}

var (
	loggerInstance *zeroLogger
	once           sync.Once
)

// New creates a new singleton instance of the logger.
// Log level is taken from the LOG_LEVEL environment variable (default: info).
func New() Logger {
	once.Do(func() {
		level := zerolog.InfoLevel
		switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
		case "debug":
			level = zerolog.DebugLevel
		case "warn":
			level = zerolog.WarnLevel
		case "error":
			level = zerolog.ErrorLevel
		}

		out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		loggerInstance = &zeroLogger{
			logger: zerolog.New(out).Level(level).With().Timestamp().Logger(),
		}
	})
	return loggerInstance
}

// Error logs an error message together with the triggering error.
func (l *zeroLogger) Error(msg string, err error) {
	l.logger.Error().Err(err).Msg(msg)
}

// Warn logs a warning message.
func (l *zeroLogger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

// Info logs an informational message.
func (l *zeroLogger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

// Debug logs a debug message.
func (l *zeroLogger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}
