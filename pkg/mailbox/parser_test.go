package mailbox

import (
	"strings"
	"testing"
	"time"
)

func rawMessage(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n") + "\r\n")
}

func TestParseMessageMultipart(t *testing.T) {
	raw := rawMessage(
		`From: "Acme Corp" <post@orgpost.io>`,
		`To: member@example.com, post+acme@orgpost.io`,
		`Subject: Weekly update`,
		`Date: Tue, 04 Mar 2025 10:30:00 +0000`,
		`MIME-Version: 1.0`,
		`Content-Type: multipart/mixed; boundary="frontier"`,
		``,
		`--frontier`,
		`Content-Type: text/plain; charset=utf-8`,
		``,
		`Hello in plain text`,
		`--frontier`,
		`Content-Type: text/html; charset=utf-8`,
		``,
		`<p>Hello in HTML</p>`,
		`--frontier`,
		`Content-Type: application/pdf`,
		`Content-Disposition: attachment; filename="report.pdf"`,
		``,
		`fake-pdf-bytes`,
		`--frontier--`,
	)

	msg, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}

	if len(msg.From) != 1 || msg.From[0].Name != "Acme Corp" || msg.From[0].Address != "post@orgpost.io" {
		t.Errorf("From = %+v", msg.From)
	}
	if len(msg.To) != 2 || msg.To[1].Address != "post+acme@orgpost.io" {
		t.Errorf("To = %+v", msg.To)
	}
	if msg.Subject != "Weekly update" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	want := time.Date(2025, time.March, 4, 10, 30, 0, 0, time.UTC)
	if !msg.SentAt.Equal(want) {
		t.Errorf("SentAt = %v, want %v", msg.SentAt, want)
	}
	if msg.PlainBody != "Hello in plain text" {
		t.Errorf("PlainBody = %q", msg.PlainBody)
	}
	if msg.HTMLBody != "<p>Hello in HTML</p>" {
		t.Errorf("HTMLBody = %q", msg.HTMLBody)
	}
	if len(msg.Attachments) != 1 {
		t.Fatalf("Attachments = %d, want 1", len(msg.Attachments))
	}
	att := msg.Attachments[0]
	if att.Filename != "report.pdf" {
		t.Errorf("attachment filename = %q", att.Filename)
	}
	if att.ContentType != "application/pdf" {
		t.Errorf("attachment content type = %q", att.ContentType)
	}
	if string(att.Data) != "fake-pdf-bytes" {
		t.Errorf("attachment data = %q", att.Data)
	}
}

func TestParseMessageMissingHeaders(t *testing.T) {
	raw := rawMessage(
		`From: anonymous@example.com`,
		`Content-Type: text/plain; charset=utf-8`,
		``,
		`just a body`,
	)

	msg, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}

	if msg.Subject != NoSubject {
		t.Errorf("Subject = %q, want %q", msg.Subject, NoSubject)
	}
	if !msg.SentAt.IsZero() {
		t.Errorf("SentAt = %v, want zero time", msg.SentAt)
	}
	if msg.From[0].Name != "" {
		t.Errorf("From name = %q, want empty", msg.From[0].Name)
	}
	if msg.PlainBody != "just a body" {
		t.Errorf("PlainBody = %q", msg.PlainBody)
	}
}

func TestParseMessageRejectsGarbage(t *testing.T) {
	if _, err := ParseMessage([]byte("this is not an rfc822 message")); err == nil {
		t.Error("ParseMessage accepted garbage input")
	}
}

func TestSentAtDisplay(t *testing.T) {
	e := Email{}
	if got := e.SentAtDisplay(); got != NoDate {
		t.Errorf("zero SentAt display = %q, want %q", got, NoDate)
	}

	e.SentAt = time.Date(2025, time.March, 4, 10, 30, 0, 0, time.UTC)
	if got := e.SentAtDisplay(); got == NoDate || got == "" {
		t.Errorf("SentAt display = %q", got)
	}
}
