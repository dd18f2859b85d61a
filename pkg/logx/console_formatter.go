package logx

import (
	"bytes"
	"fmt"
	"sort"
)

// ConsoleFormatter renders entries as human-readable lines, optionally
// colored by level.
type ConsoleFormatter struct {
	config *Config
}

// NewConsoleFormatter creates a console formatter.
func NewConsoleFormatter(config *Config) *ConsoleFormatter {
	return &ConsoleFormatter{config: config}
}

const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorBlue   = "\033[34m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
)

func levelColor(l Level) string {
	switch l {
	case LevelDebug:
		return colorGray
	case LevelInfo:
		return colorBlue
	case LevelWarn:
		return colorYellow
	case LevelError, LevelFatal:
		return colorRed
	default:
		return colorReset
	}
}

// Format implements Formatter.
func (f *ConsoleFormatter) Format(entry *LogEntry) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(entry.Timestamp.Format(f.config.TimestampFormat))
	buf.WriteByte(' ')

	if f.config.EnableColors {
		buf.WriteString(levelColor(entry.Level))
		fmt.Fprintf(&buf, "%-5s", entry.Level.String())
		buf.WriteString(colorReset)
	} else {
		fmt.Fprintf(&buf, "%-5s", entry.Level.String())
	}

	buf.WriteByte(' ')
	buf.WriteString(entry.Message)

	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&buf, " %s=%v", k, entry.Fields[k])
		}
	}

	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
