package treewatch

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel defines the verbosity of logging.
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// zapLevel maps a LogLevel onto the zap level it enables.
func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LogLevelError:
		return zap.ErrorLevel
	case LogLevelWarn:
		return zap.WarnLevel
	case LogLevelDebug:
		return zap.DebugLevel
	default:
		return zap.InfoLevel
	}
}

// NewLogger creates a zap logger with the specified log level.
// Debug uses the development config with colored levels, everything else the
// production config.
func NewLogger(level LogLevel) *zap.Logger {
	var config zap.Config
	if level == LogLevelDebug {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}
	config.Level = zap.NewAtomicLevelAt(level.zapLevel())

	logger, err := config.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
