package notifxses

import (
	"strings"
	"testing"

	"github.com/orgpost/orgpost/pkg/notifx"
)

func TestRawDestinationsIncludeCCAndBCC(t *testing.T) {
	msg := notifx.EmailMessage{
		To:  []string{"to@example.com"},
		CC:  []string{"cc@example.com"},
		BCC: []string{"bcc@example.com"},
	}

	dests := rawDestinations(msg)
	want := []string{"to@example.com", "cc@example.com", "bcc@example.com"}
	if len(dests) != len(want) {
		t.Fatalf("destinations = %v, want %v", dests, want)
	}
	for i, addr := range want {
		if dests[i] != addr {
			t.Errorf("destinations[%d] = %q, want %q", i, dests[i], addr)
		}
	}
}

func TestBuildRawMessage(t *testing.T) {
	msg := notifx.EmailMessage{
		To:       []string{"to@example.com"},
		CC:       []string{"cc@example.com"},
		BCC:      []string{"bcc@example.com"},
		ReplyTo:  "reply+acme@example.com",
		Subject:  "Weekly update",
		HTMLBody: "<p>hi</p>",
		Attachments: []notifx.Attachment{
			{Filename: "report.pdf", ContentType: "application/pdf", Data: []byte("pdf")},
		},
	}

	raw, err := buildRawMessage("sender@example.com", msg)
	if err != nil {
		t.Fatalf("buildRawMessage: %v", err)
	}
	body := string(raw)

	for _, header := range []string{
		"From: sender@example.com",
		"To: to@example.com",
		"Cc: cc@example.com",
		"Reply-To: reply+acme@example.com",
		"Subject: Weekly update",
		"Content-Type: multipart/mixed",
	} {
		if !strings.Contains(body, header) {
			t.Errorf("raw message missing %q", header)
		}
	}

	// Bcc recipients travel in the envelope only.
	if strings.Contains(body, "bcc@example.com") {
		t.Error("raw message leaks Bcc address in headers")
	}
	if !strings.Contains(body, `filename="report.pdf"`) {
		t.Error("raw message missing attachment part")
	}
}
