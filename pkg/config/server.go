package config

import "time"

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           string
	CORSOrigins    string
	BodyLimit      int
	RequestTimeout time.Duration
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:           getEnv("PORT", "8080"),
		CORSOrigins:    getEnv("CORS_ORIGINS", "*"),
		BodyLimit:      getEnvInt("BODY_LIMIT_BYTES", 25*1024*1024),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 2*time.Minute),
	}
}
