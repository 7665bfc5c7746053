package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation parameters, lumberjack semantics.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 7
)

// Config describes the daemon's own log output. When File is set the log
// is written there with rotation; otherwise it goes to stderr with level
// colors.
type Config struct {
	Level      string `toml:"level" mapstructure:"level"` // debug, info, warn, error
	File       string `toml:"file,omitempty" mapstructure:"file"`
	MaxSizeMB  int    `toml:"max_size_mb,omitempty" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups,omitempty" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days,omitempty" mapstructure:"max_age_days"`
	Compress   bool   `toml:"compress,omitempty" mapstructure:"compress"`
}

// Setup installs the process-wide slog default from cfg.
func Setup(cfg Config) {
	slog.SetDefault(slog.New(handler(cfg)))
}

func handler(cfg Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if cfg.File != "" {
		return slog.NewTextHandler(rotatingWriter(cfg), opts)
	}
	return NewColorTextHandler(os.Stderr, opts)
}

func rotatingWriter(cfg Config) io.Writer {
	return &lj.Logger{
		Filename:   cfg.File,
		MaxSize:    valOr(cfg.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(cfg.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(cfg.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   cfg.Compress,
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func valOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
