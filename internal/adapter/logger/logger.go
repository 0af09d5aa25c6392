package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LoggerAdapter struct {
	log *zap.Logger
}

// NewLoggerAdapter builds a JSON logger in production and a console logger elsewhere.
func NewLoggerAdapter(env string) *LoggerAdapter {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		log = zap.NewExample()
	}
	return &LoggerAdapter{log: log}
}

func NewNopLogger() *LoggerAdapter {
	return &LoggerAdapter{log: zap.NewNop()}
}

func (l *LoggerAdapter) Debug(msg string, fields map[string]interface{}) {
	l.log.Debug(msg, toZap(fields)...)
}

func (l *LoggerAdapter) Info(msg string, fields map[string]interface{}) {
	l.log.Info(msg, toZap(fields)...)
}

func (l *LoggerAdapter) Warn(msg string, fields map[string]interface{}) {
	l.log.Warn(msg, toZap(fields)...)
}

func (l *LoggerAdapter) Error(msg string, fields map[string]interface{}) {
	l.log.Error(msg, toZap(fields)...)
}

func (l *LoggerAdapter) Sync() error {
	return l.log.Sync()
}

func toZap(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}
