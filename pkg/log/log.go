// Package log provides the process-wide structured logger used by every
// pool subsystem.
package log

import (
	"fmt"
	"log/slog"
	"os"
)

var (
	defaultLogger *slog.Logger
	levelVar      *slog.LevelVar
)

func init() {
	levelVar = &slog.LevelVar{}
	levelVar.Set(slog.LevelInfo)

	opts := &slog.HandlerOptions{
		Level: levelVar,
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	defaultLogger = slog.New(handler)
}

// SetLevel sets the minimum level the logger emits.
func SetLevel(level slog.Level) { levelVar.Set(level) }

// SetLevelName sets the level from one of "debug", "info", "warn", "error".
// Unknown names fall back to info, matching the quiet-by-default posture of
// the rest of the manager.
func SetLevelName(name string) {
	switch name {
	case "debug":
		SetLevel(slog.LevelDebug)
	case "warn":
		SetLevel(slog.LevelWarn)
	case "error":
		SetLevel(slog.LevelError)
	default:
		SetLevel(slog.LevelInfo)
	}
}

func IsDebug() bool { return levelVar.Level() == slog.LevelDebug }

func GetLogger() *slog.Logger { return defaultLogger }

// WithModule scopes a logger to a subsystem, e.g. log.WithModule("selector").
func WithModule(module string) *slog.Logger {
	return defaultLogger.With(slog.String("module", module))
}

// WithFamily further scopes a module logger to a provider family, the unit
// every pool operation is keyed by.
func WithFamily(logger *slog.Logger, family string) *slog.Logger {
	return logger.With(slog.String("family", family))
}

func Debug(msg string, args ...any) { defaultLogger.Debug(msg, args...) }
func Info(msg string, args ...any)  { defaultLogger.Info(msg, args...) }
func Warn(msg string, args ...any)  { defaultLogger.Warn(msg, args...) }
func Error(msg string, args ...any) { defaultLogger.Error(msg, args...) }

func Debugf(format string, args ...any) { defaultLogger.Debug(fmt.Sprintf(format, args...)) }
func Infof(format string, args ...any)  { defaultLogger.Info(fmt.Sprintf(format, args...)) }
func Warnf(format string, args ...any)  { defaultLogger.Warn(fmt.Sprintf(format, args...)) }
func Errf(format string, args ...any)   { defaultLogger.Error(fmt.Sprintf(format, args...)) }
