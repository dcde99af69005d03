// Package logger provides structured, leveled logging for the gateway.
//
// It wraps a package-level *zap.SugaredLogger singleton so that any package
// can log without threading a logger through every constructor, mirroring
// how the rest of the codebase favors small, explicit interfaces but treats
// logging as ambient. The singleton can be swapped (e.g. in tests) via
// SetLogger.
package logger

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"
)

var singleton atomic.Value // holds *zap.SugaredLogger

func init() {
	singleton.Store(newDefault())
}

func newDefault() *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	if unstructuredLogs() {
		cfg = zap.NewDevelopmentConfig()
	}
	l, err := cfg.Build()
	if err != nil {
		// Fall back to a minimal logger rather than panic at import time.
		l = zap.NewNop()
	}
	return l.Sugar()
}

// unstructuredLogs reports whether human-readable (non-JSON) logs were requested.
func unstructuredLogs() bool {
	v := os.Getenv("MCPGW_UNSTRUCTURED_LOGS")
	return v == "true" || v == "1"
}

// SetLogger replaces the package-level singleton. Intended for tests and for
// wiring a differently configured logger at startup.
func SetLogger(l *zap.SugaredLogger) {
	singleton.Store(l)
}

func current() *zap.SugaredLogger {
	return singleton.Load().(*zap.SugaredLogger)
}

// Sync flushes any buffered log entries. Call before process exit.
func Sync() error {
	return current().Sync()
}

// Debug logs at debug level.
func Debug(args ...interface{}) { current().Debug(args...) }

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...interface{}) { current().Debugf(format, args...) }

// Debugw logs a message with structured key/value pairs at debug level.
func Debugw(msg string, kv ...interface{}) { current().Debugw(msg, kv...) }

// Info logs at info level.
func Info(args ...interface{}) { current().Info(args...) }

// Infof logs a formatted message at info level.
func Infof(format string, args ...interface{}) { current().Infof(format, args...) }

// Infow logs a message with structured key/value pairs at info level.
func Infow(msg string, kv ...interface{}) { current().Infow(msg, kv...) }

// Warn logs at warn level.
func Warn(args ...interface{}) { current().Warn(args...) }

// Warnf logs a formatted message at warn level.
func Warnf(format string, args ...interface{}) { current().Warnf(format, args...) }

// Warnw logs a message with structured key/value pairs at warn level.
func Warnw(msg string, kv ...interface{}) { current().Warnw(msg, kv...) }

// Error logs at error level.
func Error(args ...interface{}) { current().Error(args...) }

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...interface{}) { current().Errorf(format, args...) }

// Errorw logs a message with structured key/value pairs at error level.
func Errorw(msg string, kv ...interface{}) { current().Errorw(msg, kv...) }

// Fatal logs at fatal level, then calls os.Exit(1).
func Fatal(args ...interface{}) { current().Fatal(args...) }

// Fatalf logs a formatted message at fatal level, then calls os.Exit(1).
func Fatalf(format string, args ...interface{}) { current().Fatalf(format, args...) }

// Fatalw logs a message with structured key/value pairs at fatal level, then
// calls os.Exit(1).
func Fatalw(msg string, kv ...interface{}) { current().Fatalw(msg, kv...) }
