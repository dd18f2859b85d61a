// Package newsletter distributes composed newsletters to an
// organization's recipient list and keeps a persistent record of every
// delivered copy.
package newsletter

import (
	"strings"
	"time"

	"github.com/orgpost/orgpost/pkg/kernel"
	"github.com/orgpost/orgpost/pkg/notifx"
)

// StatusSent marks a send record whose submission was accepted by the
// provider.
const StatusSent = "Sent"

// Recipient is one destination of a dispatch. MemberID is set when the
// address resolves to a known member of the organization.
type Recipient struct {
	Address  string          `json:"address"`
	MemberID kernel.MemberID `json:"member_id,omitempty"`
}

// SendJob describes one newsletter dispatch: who sends it, what goes
// out and to whom. Attachments are sent inline with every copy.
type SendJob struct {
	SenderID         kernel.MemberID     `json:"sender_id"`
	SenderName       string              `json:"sender_name"`
	ReplyToExtension string              `json:"reply_to_extension"`
	Subject          string              `json:"subject"`
	HTMLBody         string              `json:"html_body"`
	Attachments      []notifx.Attachment `json:"attachments,omitempty"`
	Recipients       []Recipient         `json:"recipients"`
}

// SendFailure is one recipient the dispatch could not deliver to.
type SendFailure struct {
	Address string `json:"address"`
	Reason  string `json:"reason"`
}

// DispatchResult summarizes one dispatch. A dispatch with failures is
// still a success for the recipients it reached.
type DispatchResult struct {
	Attempted    int           `json:"attempted"`
	SuccessCount int           `json:"success_count"`
	Failures     []SendFailure `json:"failures"`
}

// SendRecord is the persisted trace of one delivered newsletter copy.
// ReceiverID is nil when the address did not resolve to a member.
type SendRecord struct {
	ID              string           `db:"id" json:"id"`
	SenderID        kernel.MemberID  `db:"sender_id" json:"sender_id"`
	SenderName      string           `db:"sender_name" json:"sender_name"`
	ReceiverID      *kernel.MemberID `db:"receiver_id" json:"receiver_id,omitempty"`
	ReceiverAddress string           `db:"receiver_address" json:"receiver_address"`
	Subject         string           `db:"subject" json:"subject"`
	Body            string           `db:"body" json:"body"`
	Status          string           `db:"status" json:"status"`
	SentAt          time.Time        `db:"sent_at" json:"sent_at"`
}

// DedupeRecipients drops repeated addresses, keeping the first
// occurrence of each. Comparison is exact; address case is preserved and
// significant.
func DedupeRecipients(recipients []Recipient) []Recipient {
	seen := make(map[string]struct{}, len(recipients))
	out := make([]Recipient, 0, len(recipients))
	for _, r := range recipients {
		if _, ok := seen[r.Address]; ok {
			continue
		}
		seen[r.Address] = struct{}{}
		out = append(out, r)
	}
	return out
}

// ReplyToAddress inserts the organization's plus extension into the base
// reply address, so replies land back in the shared mailbox under the
// org's tag. An empty extension or a malformed base returns the base
// unchanged.
func ReplyToAddress(base, extension string) string {
	if extension == "" {
		return base
	}
	at := strings.LastIndex(base, "@")
	if at < 0 {
		return base
	}
	return base[:at] + "+" + extension + base[at:]
}
