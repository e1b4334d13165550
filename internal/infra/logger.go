package infra

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger собирает zap логгер по LoggerConfig: json - продакшн-энкодер, console - человекочитаемый.
func NewLogger(cfg LoggerConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid logger.level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	switch cfg.Format {
	case "json":
		zc = zap.NewProductionConfig()
	case "console", "":
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.Development = false
	default:
		return nil, fmt.Errorf("invalid logger.format %q", cfg.Format)
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}
