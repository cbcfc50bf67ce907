package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapLogger adapts a zap.SugaredLogger to the Logger interface.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZap wraps a zap logger. A nil logger yields Noop.
func NewZap(z *zap.Logger) Logger {
	if z == nil {
		return Noop()
	}
	return &zapLogger{sugar: z.Sugar()}
}

// NewZapProduction builds a zap logger for headless use.
// format is "json" or "text"; debug lowers the level to debug.
func NewZapProduction(format string, debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if format != "json" {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func (l *zapLogger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

func (l *zapLogger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

func (l *zapLogger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

func (l *zapLogger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}
