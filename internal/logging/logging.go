// Package logging builds the zap logger shared by the CLI and the library.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects the level, encoding and destination of log output
type Config struct {
	// Level is one of debug, info, warn, error
	Level string `json:"level" envconfig:"LEVEL"`
	// Format is json or console
	Format string `json:"format" envconfig:"FORMAT"`
	// File enables a size-rotated log file in addition to stderr
	File       string `json:"file,omitempty" envconfig:"FILE"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty" envconfig:"MAX_SIZE_MB"`
	MaxBackups int    `json:"max_backups,omitempty" envconfig:"MAX_BACKUPS"`
	MaxAgeDays int    `json:"max_age_days,omitempty" envconfig:"MAX_AGE_DAYS"`
}

// DefaultConfig logs info and above to stderr as console text
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		MaxSizeMB:  100,
		MaxBackups: 5,
		MaxAgeDays: 7,
	}
}

// ParseLevel converts a level name, defaulting to info
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds a logger from cfg
func New(cfg Config) *zap.Logger {
	return zap.New(newCore(cfg, zapcore.Lock(os.Stderr)), zap.AddCaller())
}

func newCore(cfg Config, stderr zapcore.WriteSyncer) zapcore.Core {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if strings.EqualFold(cfg.Format, "json") {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	sink := stderr
	if cfg.File != "" {
		sink = zapcore.NewMultiWriteSyncer(stderr, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			LocalTime:  true,
		}))
	}

	return zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(ParseLevel(cfg.Level)))
}
