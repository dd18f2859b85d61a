package notifx

// EmailMessage is an email to be submitted.
type EmailMessage struct {
	From        string       `json:"from"`
	To          []string     `json:"to"`
	CC          []string     `json:"cc,omitempty"`
	BCC         []string     `json:"bcc,omitempty"`
	ReplyTo     string       `json:"reply_to,omitempty"`
	Subject     string       `json:"subject"`
	TextBody    string       `json:"text_body,omitempty"`
	HTMLBody    string       `json:"html_body,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is a binary attachment on an outbound email. Data is
// base64-encoded on the wire.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// SendResult is the outcome of a single send attempt.
type SendResult struct {
	MessageID string `json:"message_id,omitempty"`
	To        string `json:"to"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}
