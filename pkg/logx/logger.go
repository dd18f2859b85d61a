package logx

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Logger writes formatted log entries to a single output.
type Logger struct {
	config    *Config
	formatter Formatter
	mu        sync.Mutex
	writer    io.Writer
	exitFunc  func(int)
}

// NewLogger creates a logger with the given config.
func NewLogger(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}

	var formatter Formatter
	switch config.Format {
	case FormatJSON:
		formatter = NewJSONFormatter(config)
	default:
		formatter = NewConsoleFormatter(config)
	}

	var writer io.Writer = config.Output
	if writer == nil {
		writer = os.Stdout
	}

	return &Logger{
		config:    config,
		formatter: formatter,
		writer:    writer,
		exitFunc:  os.Exit,
	}
}

// SetLevel changes the minimum emitted level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Level = level
}

// SetOutput changes the output writer.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

func (l *Logger) log(level Level, msg string, fields Fields, err error) {
	if !l.config.Level.Enabled(level) {
		return
	}

	entry := &LogEntry{
		Level:     level,
		Message:   msg,
		Fields:    fields,
		Error:     err,
		Timestamp: time.Now(),
	}

	formatted, fmtErr := l.formatter.Format(entry)
	if fmtErr != nil {
		fmt.Fprintf(os.Stderr, "logx: format error: %v\n", fmtErr)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, wErr := l.writer.Write(formatted); wErr != nil {
		fmt.Fprintf(os.Stderr, "logx: write error: %v\n", wErr)
	}
}

// WithField starts an entry with one field.
func (l *Logger) WithField(key string, value interface{}) *Entry {
	return newEntry(l).WithField(key, value)
}

// WithFields starts an entry with multiple fields.
func (l *Logger) WithFields(fields Fields) *Entry {
	return newEntry(l).WithFields(fields)
}

// WithError starts an entry carrying an error field.
func (l *Logger) WithError(err error) *Entry {
	return newEntry(l).WithError(err)
}

func (l *Logger) exit(code int) {
	l.exitFunc(code)
}
