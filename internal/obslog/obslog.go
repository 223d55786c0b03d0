// Package obslog provides the runner's invocation audit trail: a rotating
// file log distinct from the library-facing logger package. Every indicator
// invocation writes one record here, to a rotating file, never on stdout.
package obslog

import (
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where and how the audit log rotates.
type Config struct {
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DefaultConfig rotates at 50MB, keeps 5 backups for 30 days.
func DefaultConfig(filePath string) Config {
	return Config{
		FilePath:   filePath,
		MaxSizeMB:  50,
		MaxBackups: 5,
		MaxAgeDays: 30,
	}
}

// New builds the rotating-file audit logger. Nothing is written to stdout:
// stdout is reserved for the single JSON result object.
func New(cfg Config) zerolog.Logger {
	writer := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	return zerolog.New(writer).With().Timestamp().Logger()
}

// LogInvocation records one runner invocation: the resolved script path,
// its wall-clock duration, and whether it succeeded.
func LogInvocation(logger zerolog.Logger, scriptPath string, duration time.Duration, ok bool, errType, errMessage string) {
	event := logger.Info().
		Str("event", "invocation").
		Str("script_path", scriptPath).
		Dur("duration", duration).
		Bool("ok", ok)
	if !ok {
		event = event.Str("error_type", errType).Str("error_message", errMessage)
	}
	event.Msg("indicator invocation")
}
