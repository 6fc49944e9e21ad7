// Package logging builds the process logger and carries request scoped loggers
// through context.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// EnvProduction selects JSON output at info level.
const EnvProduction = "production"

type contextKey struct{}

// New returns a slog logger backed by zap. Production environments log JSON at
// info level; everything else gets the colored development console encoder at
// the requested level. The returned function flushes buffered entries.
func New(env, level string) (*slog.Logger, func() error, error) {
	var config zap.Config
	if strings.EqualFold(env, EnvProduction) {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	config.OutputPaths = []string{"stdout"}

	if strings.TrimSpace(level) != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, nil, fmt.Errorf("parse log level: %w", err)
		}
		config.Level = zap.NewAtomicLevelAt(parsed)
	}

	base, err := config.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return FromZap(base), base.Sync, nil
}

// FromZap adapts an existing zap logger to slog.
func FromZap(base *zap.Logger) *slog.Logger {
	return slog.New(zapslog.NewHandler(base.Core(), zapslog.WithCaller(true)))
}

// ContextWithLogger returns a derived context that carries the provided logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts a logger previously attached to the context.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(contextKey{}).(*slog.Logger)
	return logger
}
