// Package logging builds the zap loggers used by the CLI. Logs go to stderr
// so that stdout carries only command output.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger constructs a zap logger with the provided level (default info).
// It uses console encoding and ISO8601 timestamps.
func NewLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	lvl := level
	if lvl == "" {
		lvl = "info"
	}
	l, err := zapcore.ParseLevel(lvl)
	if err != nil {
		return nil, fmt.Errorf("logging.NewLogger: %w", err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(l)
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.DisableStacktrace = true
	return zcfg.Build()
}

// WithComponent attaches a component field.
func WithComponent(logger *zap.Logger, component string) *zap.Logger {
	if component == "" {
		return logger
	}
	return logger.With(zap.String("component", component))
}

// WithSubject attaches the assessed subject.
func WithSubject(logger *zap.Logger, subject string) *zap.Logger {
	if subject == "" {
		return logger
	}
	return logger.With(zap.String("subject", subject))
}
