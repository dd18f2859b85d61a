package mailbox

import "time"

// Folder is the logical source folder of a message. The mailbox has
// exactly two folders the crawler inspects.
type Folder string

const (
	// FolderInbox holds mail received by the shared mailbox.
	FolderInbox Folder = "received"

	// FolderSent holds mail sent from the shared mailbox.
	FolderSent Folder = "sent-by-us"
)

// StatusUnread is the initial status of every ingested email.
const StatusUnread = "unread"

// NoSubject is the placeholder for messages without a Subject header.
const NoSubject = "No Subject"

// NoDate is the display form of a missing Date header.
const NoDate = "No Date"

// Address is a display-name/address pair from an address header. Name is
// the empty string when the header carried no display name, never absent.
type Address struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Attachment is the stored form of a message attachment, referenced by
// its globally unique stored filename.
type Attachment struct {
	OriginalFilename string `json:"original_filename"`
	StoredFilename   string `json:"stored_filename"`
	ContentType      string `json:"content_type"`
	URL              string `json:"url"`
}

// Email is one classified message returned from an ingestion cycle. It is
// built per request and not retained server-side.
type Email struct {
	ID           string       `json:"id"`
	From         []Address    `json:"from"`
	To           []Address    `json:"to"`
	Subject      string       `json:"subject"`
	SentAt       time.Time    `json:"sent_at"`
	PlainBody    string       `json:"plain_body"`
	HTMLBody     string       `json:"html_body"`
	Attachments  []Attachment `json:"attachments"`
	SourceFolder Folder       `json:"source_folder"`
	Status       string       `json:"status"`
	IngestedAt   time.Time    `json:"ingested_at"`
}

// SentAtDisplay renders the sent timestamp, using the NoDate sentinel for
// messages whose Date header was missing or unparseable.
func (e *Email) SentAtDisplay() string {
	if e.SentAt.IsZero() {
		return NoDate
	}
	return e.SentAt.Format(time.RFC1123Z)
}
