// Package logger provides the shared logging facility for the registry
// server. It wraps a zap logger behind package-level functions so callers
// never carry a logger instance around.
package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment variables controlling the logger. LOG_LEVEL is honored as a
// fallback for operators that do not use the prefixed form.
const (
	EnvLogLevel  = "PLX_REGISTRY_LOG_LEVEL"
	EnvLogFormat = "PLX_REGISTRY_LOG_FORMAT"

	fallbackEnvLogLevel = "LOG_LEVEL"
)

var (
	mu  sync.RWMutex
	log *zap.SugaredLogger
)

// Initialize configures the global logger from the environment. JSON output
// is the default; set PLX_REGISTRY_LOG_FORMAT=console for human-readable
// output during development. Safe to call more than once; the last call wins.
func Initialize() {
	mu.Lock()
	defer mu.Unlock()
	log = build(levelFromEnv(), formatFromEnv()).Sugar()
}

// Sync flushes buffered log entries. Call before process exit.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if log != nil {
		_ = log.Sync()
	}
}

func levelFromEnv() zapcore.Level {
	levelStr := os.Getenv(EnvLogLevel)
	if levelStr == "" {
		levelStr = os.Getenv(fallbackEnvLogLevel)
	}

	switch strings.ToLower(levelStr) {
	case "debug":
		return zapcore.DebugLevel
	case "info", "":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func formatFromEnv() string {
	return strings.ToLower(os.Getenv(EnvLogFormat))
}

func build(level zapcore.Level, format string) *zap.Logger {
	var encoder zapcore.Encoder

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "console" {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	// Logs go to stderr so stdout stays clean for command output.
	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)
	return zap.New(core, zap.AddCallerSkip(1))
}

// get returns the configured logger, initializing lazily so early callers
// (init-order, tests) never hit a nil logger.
func get() *zap.SugaredLogger {
	mu.RLock()
	l := log
	mu.RUnlock()
	if l != nil {
		return l
	}
	Initialize()
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Debug logs at debug level with structured key-value pairs.
func Debug(msg string, keysAndValues ...any) { get().Debugw(msg, keysAndValues...) }

// Info logs at info level with structured key-value pairs.
func Info(msg string, keysAndValues ...any) { get().Infow(msg, keysAndValues...) }

// Warn logs at warn level with structured key-value pairs.
func Warn(msg string, keysAndValues ...any) { get().Warnw(msg, keysAndValues...) }

// Error logs at error level with structured key-value pairs.
func Error(msg string, keysAndValues ...any) { get().Errorw(msg, keysAndValues...) }

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...any) { get().Debugf(format, args...) }

// Infof logs a formatted message at info level.
func Infof(format string, args ...any) { get().Infof(format, args...) }

// Warnf logs a formatted message at warn level.
func Warnf(format string, args ...any) { get().Warnf(format, args...) }

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...any) { get().Errorf(format, args...) }

// Fatalf logs a formatted message at fatal level and exits.
func Fatalf(format string, args ...any) { get().Fatalf(format, args...) }
