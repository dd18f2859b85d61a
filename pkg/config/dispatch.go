package config

// DispatchConfig configures newsletter fan-out.
type DispatchConfig struct {
	// Concurrency bounds the number of in-flight sends per dispatch.
	// The default is high enough that typical recipient sets still go
	// out effectively all at once.
	Concurrency int

	// ReplyToAddress is the base reply address; the per-organization
	// extension token is inserted before the @ as a plus extension.
	ReplyToAddress string
}

func loadDispatchConfig() DispatchConfig {
	return DispatchConfig{
		Concurrency:    getEnvInt("DISPATCH_CONCURRENCY", 64),
		ReplyToAddress: getEnv("DISPATCH_REPLY_TO", "post@orgpost.io"),
	}
}
