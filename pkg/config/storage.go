package config

// StorageConfig configures the attachment storage root.
type StorageConfig struct {
	Mode      string // "local" or "s3"
	LocalDir  string
	AWSRegion string
	AWSBucket string
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Mode:      getEnv("STORAGE_MODE", "local"),
		LocalDir:  getEnv("ATTACHMENT_DIR", "./attachments"),
		AWSRegion: getEnv("AWS_REGION", "us-east-1"),
		AWSBucket: getEnv("AWS_BUCKET", "orgpost-attachments"),
	}
}
