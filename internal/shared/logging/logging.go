// Package logging builds the zap logger shared by the client and the server.
package logging

import (
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel maps a textual level to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// New returns a production zap logger at the given level.
func New(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		dev := zap.NewDevelopmentConfig()
		dev.Level = zap.NewAtomicLevelAt(ParseLevel(level))
		logger, _ = dev.Build()
	}
	return logger
}

// NewLogr wraps New as a logr.Logger for library packages.
func NewLogr(level string) (logr.Logger, *zap.Logger) {
	z := New(level)
	return zapr.NewLogger(z), z
}
