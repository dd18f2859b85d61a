package logx

import "encoding/json"

// JSONFormatter renders entries as one JSON object per line, suitable for
// log aggregation.
type JSONFormatter struct {
	config *Config
}

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter(config *Config) *JSONFormatter {
	return &JSONFormatter{config: config}
}

// Format implements Formatter.
func (f *JSONFormatter) Format(entry *LogEntry) ([]byte, error) {
	payload := make(map[string]interface{}, len(entry.Fields)+3)

	for k, v := range entry.Fields {
		payload[k] = v
	}
	payload["time"] = entry.Timestamp.Format(f.config.TimestampFormat)
	payload["level"] = entry.Level.String()
	payload["message"] = entry.Message
	if entry.Error != nil {
		payload["error"] = entry.Error.Error()
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
