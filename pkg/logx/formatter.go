package logx

import "time"

// Fields is a set of structured key/value pairs attached to a log entry.
type Fields map[string]interface{}

// LogEntry is the unit handed to a formatter.
type LogEntry struct {
	Level     Level
	Message   string
	Fields    Fields
	Error     error
	Timestamp time.Time
}

// Formatter renders a log entry to bytes, including the trailing newline.
type Formatter interface {
	Format(entry *LogEntry) ([]byte, error)
}
