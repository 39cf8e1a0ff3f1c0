// Package logging is the process-wide logging facade. All packages log
// through it so CLI output can be silenced in one place.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	disabled = false
	logger   = newLogger(zapcore.InfoLevel)
)

func newLogger(level zapcore.Level) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

// SetDebug rebuilds the logger at debug level.
func SetDebug() {
	logger = newLogger(zapcore.DebugLevel)
}

// Disable turns off all logging (used for clean interactive output).
func Disable() {
	disabled = true
}

// Enable turns logging back on.
func Enable() {
	disabled = false
}

// Sync flushes buffered log entries. Call before process exit.
func Sync() {
	_ = logger.Sync()
}

// Infof logs a formatted info message.
func Infof(format string, v ...any) {
	if !disabled {
		logger.Infof(format, v...)
	}
}

// Warnf logs a formatted warning message.
func Warnf(format string, v ...any) {
	if !disabled {
		logger.Warnf(format, v...)
	}
}

// Errorf logs a formatted error message.
func Errorf(format string, v ...any) {
	if !disabled {
		logger.Errorf(format, v...)
	}
}

// Debugf logs a formatted debug message.
func Debugf(format string, v ...any) {
	if !disabled {
		logger.Debugf(format, v...)
	}
}
