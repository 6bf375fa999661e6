// SPDX-License-Identifier: EPL-2.0

// Package logging builds the zap loggers used by the command line tools.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewZapLogger returns a development logger for "debug" and a production
// logger at the given level otherwise. Unknown levels mean info.
func NewZapLogger(level string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(level) {
	case "debug":
		cfg = zap.NewDevelopmentConfig()
	case "warn":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create zap logger: %w", err)
	}
	return logger, nil
}

// NewFxLogger routes fx lifecycle messages through logger.
func NewFxLogger(logger *zap.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: logger.Named("fx")}
}
