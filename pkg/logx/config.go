package logx

import (
	"os"
	"time"
)

// Format selects the output encoding.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// Config controls logger behaviour.
type Config struct {
	Level           Level
	Format          Format
	TimestampFormat string
	EnableColors    bool
	Output          *os.File
}

// DefaultConfig returns a console logger at info level.
func DefaultConfig() *Config {
	return &Config{
		Level:           LevelInfo,
		Format:          FormatConsole,
		TimestampFormat: time.RFC3339,
		EnableColors:    true,
		Output:          os.Stdout,
	}
}

// LoadFromEnv builds a config from LOG_LEVEL and LOG_FORMAT.
func LoadFromEnv() *Config {
	cfg := DefaultConfig()

	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		cfg.Level = ParseLevel(lvl)
	}
	if format := os.Getenv("LOG_FORMAT"); format == string(FormatJSON) {
		cfg.Format = FormatJSON
		cfg.EnableColors = false
	}
	return cfg
}
