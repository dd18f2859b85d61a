package logx

import (
	"fmt"
	"os"
)

// defaultLogger is the process-wide logger, configured from the environment.
var defaultLogger *Logger

func init() {
	defaultLogger = NewLogger(LoadFromEnv())
}

// SetDefaultLogger replaces the global logger.
func SetDefaultLogger(logger *Logger) {
	defaultLogger = logger
}

// GetDefaultLogger returns the global logger.
func GetDefaultLogger() *Logger {
	return defaultLogger
}

// SetLevel sets the level of the global logger.
func SetLevel(level Level) {
	defaultLogger.SetLevel(level)
}

// SetOutput sets the output of the global logger.
func SetOutput(w *os.File) {
	defaultLogger.SetOutput(w)
}

// Debug logs a debug message on the global logger.
func Debug(msg string) { defaultLogger.log(LevelDebug, msg, nil, nil) }

// Info logs an info message on the global logger.
func Info(msg string) { defaultLogger.log(LevelInfo, msg, nil, nil) }

// Warn logs a warning on the global logger.
func Warn(msg string) { defaultLogger.log(LevelWarn, msg, nil, nil) }

// Error logs an error message on the global logger.
func Error(msg string) { defaultLogger.log(LevelError, msg, nil, nil) }

// Fatal logs a fatal message and exits.
func Fatal(msg string) {
	defaultLogger.log(LevelFatal, msg, nil, nil)
	defaultLogger.exit(1)
}

// Debugf logs a formatted debug message.
func Debugf(format string, args ...interface{}) {
	defaultLogger.log(LevelDebug, fmt.Sprintf(format, args...), nil, nil)
}

// Infof logs a formatted info message.
func Infof(format string, args ...interface{}) {
	defaultLogger.log(LevelInfo, fmt.Sprintf(format, args...), nil, nil)
}

// Warnf logs a formatted warning.
func Warnf(format string, args ...interface{}) {
	defaultLogger.log(LevelWarn, fmt.Sprintf(format, args...), nil, nil)
}

// Errorf logs a formatted error message.
func Errorf(format string, args ...interface{}) {
	defaultLogger.log(LevelError, fmt.Sprintf(format, args...), nil, nil)
}

// Fatalf logs a formatted fatal message and exits.
func Fatalf(format string, args ...interface{}) {
	defaultLogger.log(LevelFatal, fmt.Sprintf(format, args...), nil, nil)
	defaultLogger.exit(1)
}

// WithField starts an entry on the global logger with one field.
func WithField(key string, value interface{}) *Entry {
	return defaultLogger.WithField(key, value)
}

// WithFields starts an entry on the global logger with multiple fields.
func WithFields(fields Fields) *Entry {
	return defaultLogger.WithFields(fields)
}

// WithError starts an entry on the global logger carrying an error.
func WithError(err error) *Entry {
	return defaultLogger.WithError(err)
}
