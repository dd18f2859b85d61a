package config

// MailboxConfig configures the IMAP mail store holding the shared
// organization mailbox.
type MailboxConfig struct {
	Host        string
	Port        int
	Address     string
	AppPassword string
	TLS         bool

	// InboxFolder and SentFolder are the two folders inspected per
	// ingestion cycle.
	InboxFolder string
	SentFolder  string
}

func loadMailboxConfig() MailboxConfig {
	return MailboxConfig{
		Host:        getEnv("IMAP_HOST", "imap.gmail.com"),
		Port:        getEnvInt("IMAP_PORT", 993),
		Address:     getEnv("IMAP_ADDRESS", ""),
		AppPassword: getEnv("IMAP_APP_PASSWORD", ""),
		TLS:         getEnvBool("IMAP_TLS", true),
		InboxFolder: getEnv("IMAP_INBOX_FOLDER", "INBOX"),
		SentFolder:  getEnv("IMAP_SENT_FOLDER", "[Gmail]/Sent Mail"),
	}
}
