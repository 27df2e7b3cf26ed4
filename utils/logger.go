package utils

import (
	"log"
	"sync"

	"concierge/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide logger. Use GetLogger.
var Logger *zap.Logger

var loggerOnce sync.Once

func buildLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if config.IsProduction() {
		cfg = zap.NewProductionConfig()
	}
	// LOG_LEVEL wins over the environment default when it parses.
	if lvl, err := zapcore.ParseLevel(config.AppConfig.LogLevel); err == nil && config.AppConfig.LogLevel != "" {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	logger, err := cfg.Build(zap.Fields(zap.String("service", "concierge")))
	if err != nil {
		log.Fatalf("utils: failed to build logger: %v", err)
	}
	return logger
}

// GetLogger returns the process-wide logger, building it on first use.
func GetLogger() *zap.Logger {
	loggerOnce.Do(func() {
		Logger = buildLogger()
	})
	return Logger
}
