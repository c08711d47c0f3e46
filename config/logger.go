package config

import (
	"fmt"

	"go.uber.org/zap"
)

// Build creates logger with configured level and encoding.
func (c LoggerConfig) Build() (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = lvl
	zc.Encoding = c.Encoding
	if c.Encoding == "console" {
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	return zc.Build()
}
