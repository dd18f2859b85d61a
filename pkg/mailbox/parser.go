package mailbox

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	_ "github.com/emersion/go-message/charset"
)

// AttachmentBlob is a decoded attachment part before it is persisted.
type AttachmentBlob struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ParsedMessage is the structured form of one raw message.
type ParsedMessage struct {
	From        []Address
	To          []Address
	Subject     string
	SentAt      time.Time
	PlainBody   string
	HTMLBody    string
	Attachments []AttachmentBlob
}

// ParseMessage decodes raw RFC 822 bytes into a ParsedMessage. Header
// fields degrade gracefully: a missing subject becomes NoSubject, a
// missing or unparseable date becomes the zero time, an absent display
// name becomes "". Only a body that cannot be decoded at all is an error;
// callers skip such messages and continue the cycle.
func ParseMessage(raw []byte) (*ParsedMessage, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, mailboxErrors.NewWithCause(ErrParseFailed, err)
	}
	defer mr.Close()

	msg := &ParsedMessage{
		From:    parseAddressList(mr.Header, "From"),
		To:      parseAddressList(mr.Header, "To"),
		Subject: parseSubject(mr.Header),
		SentAt:  parseDate(mr.Header),
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A broken part ends the MIME walk but whatever was
			// decoded so far is kept.
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			switch {
			case strings.HasPrefix(contentType, "text/plain"):
				msg.PlainBody = string(body)
			case strings.HasPrefix(contentType, "text/html"):
				msg.HTMLBody = string(body)
			}

		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()

			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			msg.Attachments = append(msg.Attachments, AttachmentBlob{
				Filename:    filename,
				ContentType: contentType,
				Data:        body,
			})
		}
	}

	return msg, nil
}

func parseAddressList(h mail.Header, field string) []Address {
	list, err := h.AddressList(field)
	if err != nil || len(list) == 0 {
		return nil
	}

	out := make([]Address, 0, len(list))
	for _, a := range list {
		out = append(out, Address{
			Name:    a.Name,
			Address: a.Address,
		})
	}
	return out
}

func parseSubject(h mail.Header) string {
	subject, err := h.Subject()
	if err != nil || subject == "" {
		return NoSubject
	}
	return subject
}

func parseDate(h mail.Header) time.Time {
	date, err := h.Date()
	if err != nil {
		return time.Time{}
	}
	return date
}
