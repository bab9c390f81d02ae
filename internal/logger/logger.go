package logger

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field is a typed structured logging field.
type Field = zap.Field

// Logger is a thin structured logger over zap. A nil *Logger is usable and discards everything.
type Logger struct {
	logger *zap.Logger
}

// New builds a logger for the given environment and level name.
// Production uses the JSON encoder; every other environment logs to the console.
func New(env, level string) (*Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true

	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return &Logger{logger: z}, nil
}

// Wrap adapts an existing zap logger, mainly for tests using zaptest/observer.
func Wrap(z *zap.Logger) *Logger {
	return &Logger{logger: z}
}

// NewNop returns a logger that drops every entry.
func NewNop() *Logger {
	return &Logger{logger: zap.NewNop()}
}

func (l *Logger) must() *zap.Logger {
	if l == nil || l.logger == nil {
		return zap.NewNop()
	}
	return l.logger
}

// With returns a child logger with additional structured fields.
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{logger: l.must().With(fields...)}
}

func (l *Logger) Debug(message string, fields ...Field) {
	l.must().Debug(message, fields...)
}

func (l *Logger) Info(message string, fields ...Field) {
	l.must().Info(message, fields...)
}

func (l *Logger) Warn(message string, fields ...Field) {
	l.must().Warn(message, fields...)
}

func (l *Logger) Error(message string, fields ...Field) {
	l.must().Error(message, fields...)
}

// Sync flushes buffered logs, respecting context cancellation.
func (l *Logger) Sync(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- l.must().Sync()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q", level)
	}
}
