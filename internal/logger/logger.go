package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Pretty bool   // Enable pretty console output

	// File, when set, also writes JSON lines to a rotated log file.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Out overrides stdout; used by tests.
	Out io.Writer
}

// ParseLevel maps a level name to a zerolog level; unknown names are info.
func ParseLevel(s string) zerolog.Level {
	switch s {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// New creates a new structured logger
func New(cfg Config) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	var stdout io.Writer = os.Stdout
	if cfg.Out != nil {
		stdout = cfg.Out
	}
	output := stdout
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        stdout,
			TimeFormat: "15:04:05",
		}
	}

	if cfg.File != "" {
		_ = os.MkdirAll(filepath.Dir(cfg.File), 0o755)
		output = io.MultiWriter(output, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, 25),
			MaxBackups: orDefault(cfg.MaxBackups, 10),
			MaxAge:     orDefault(cfg.MaxAgeDays, 14),
			Compress:   true,
		})
	}

	return zerolog.New(output).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

// SetGlobalLogger sets the package-level logger
func SetGlobalLogger(l zerolog.Logger) {
	log.Logger = l
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
