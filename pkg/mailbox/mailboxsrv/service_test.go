package mailboxsrv

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/orgpost/orgpost/pkg/attachstore"
	"github.com/orgpost/orgpost/pkg/config"
	"github.com/orgpost/orgpost/pkg/fsx/fsxlocal"
	"github.com/orgpost/orgpost/pkg/mailbox"
)

type fakeSession struct {
	ids      map[string][]mailbox.MessageID
	raw      map[string][]byte
	fetchErr map[string]error
	listErr  error
	closed   bool
}

func (s *fakeSession) List(_ context.Context, folder string) ([]mailbox.MessageID, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.ids[folder], nil
}

func (s *fakeSession) Fetch(_ context.Context, folder string, id mailbox.MessageID) ([]byte, error) {
	key := folder + "/" + string(id)
	if err := s.fetchErr[key]; err != nil {
		return nil, err
	}
	return s.raw[key], nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeStore struct {
	session    *fakeSession
	connectErr error
	connects   int
}

func (s *fakeStore) Connect(_ context.Context) (mailbox.Session, error) {
	s.connects++
	if s.connectErr != nil {
		return nil, s.connectErr
	}
	return s.session, nil
}

func testConfig() config.MailboxConfig {
	return config.MailboxConfig{InboxFolder: "INBOX", SentFolder: "SENT"}
}

func newAttachments(t *testing.T) *attachstore.Store {
	t.Helper()
	fs, err := fsxlocal.NewLocalFileSystem(t.TempDir())
	if err != nil {
		t.Fatalf("creating local filesystem: %v", err)
	}
	return attachstore.New(fs)
}

func message(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n") + "\r\n")
}

func relevantInboxMessage() []byte {
	return message(
		`From: friend@example.com`,
		`To: post+acme@orgpost.io`,
		`Subject: Question about membership`,
		`Content-Type: text/plain; charset=utf-8`,
		``,
		`Hello!`,
	)
}

func relevantSentMessage() []byte {
	return message(
		`From: "Acme Corp" <post@orgpost.io>`,
		`To: member@example.com`,
		`Subject: Our newsletter`,
		`Content-Type: multipart/mixed; boundary="b"`,
		``,
		`--b`,
		`Content-Type: text/html; charset=utf-8`,
		``,
		`<p>News</p>`,
		`--b`,
		`Content-Type: application/pdf`,
		`Content-Disposition: attachment; filename="agenda.pdf"`,
		``,
		`pdf-data`,
		`--b--`,
	)
}

func irrelevantMessage() []byte {
	return message(
		`From: spam@example.com`,
		`To: post@orgpost.io`,
		`Subject: Unrelated`,
		`Content-Type: text/plain; charset=utf-8`,
		``,
		`ignore me`,
	)
}

func TestIngestRequiresOrgParams(t *testing.T) {
	store := &fakeStore{}
	svc := NewMailboxService(store, newAttachments(t), testConfig())

	if _, err := svc.Ingest(context.Background(), "", "acme"); err == nil {
		t.Error("missing org name accepted")
	}
	if _, err := svc.Ingest(context.Background(), "Acme Corp", ""); err == nil {
		t.Error("missing org slug accepted")
	}
	if store.connects != 0 {
		t.Errorf("connected %d times before validation, want 0", store.connects)
	}
}

func TestIngestClassifiesBothFolders(t *testing.T) {
	session := &fakeSession{
		ids: map[string][]mailbox.MessageID{
			"INBOX": {"1", "2"},
			"SENT":  {"3"},
		},
		raw: map[string][]byte{
			"INBOX/1": relevantInboxMessage(),
			"INBOX/2": irrelevantMessage(),
			"SENT/3":  relevantSentMessage(),
		},
	}
	store := &fakeStore{session: session}
	svc := NewMailboxService(store, newAttachments(t), testConfig())

	result, err := svc.Ingest(context.Background(), "Acme Corp", "acme")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if result.Report.Listed != 3 {
		t.Errorf("Listed = %d, want 3", result.Report.Listed)
	}
	if result.Report.Relevant != 2 {
		t.Errorf("Relevant = %d, want 2", result.Report.Relevant)
	}
	if len(result.Emails) != 2 {
		t.Fatalf("Emails = %d, want 2", len(result.Emails))
	}

	// Received mail comes before sent mail.
	if result.Emails[0].SourceFolder != mailbox.FolderInbox {
		t.Errorf("first email folder = %q, want %q", result.Emails[0].SourceFolder, mailbox.FolderInbox)
	}
	if result.Emails[1].SourceFolder != mailbox.FolderSent {
		t.Errorf("second email folder = %q, want %q", result.Emails[1].SourceFolder, mailbox.FolderSent)
	}

	sent := result.Emails[1]
	if sent.Status != mailbox.StatusUnread {
		t.Errorf("Status = %q, want %q", sent.Status, mailbox.StatusUnread)
	}
	if len(sent.Attachments) != 1 {
		t.Fatalf("sent attachments = %d, want 1", len(sent.Attachments))
	}
	att := sent.Attachments[0]
	if att.OriginalFilename != "agenda.pdf" {
		t.Errorf("attachment original = %q", att.OriginalFilename)
	}
	if att.StoredFilename == "agenda.pdf" || att.StoredFilename == "" {
		t.Errorf("attachment stored name not uniquified: %q", att.StoredFilename)
	}
	if !strings.HasPrefix(att.URL, attachstore.URLPrefix) {
		t.Errorf("attachment URL = %q", att.URL)
	}

	if !session.closed {
		t.Error("session not closed after ingest")
	}
}

func TestIngestSkipsBrokenMessages(t *testing.T) {
	session := &fakeSession{
		ids: map[string][]mailbox.MessageID{
			"INBOX": {"1", "2", "3"},
			"SENT":  {},
		},
		raw: map[string][]byte{
			"INBOX/1": relevantInboxMessage(),
			"INBOX/3": []byte("not a mime message"),
		},
		fetchErr: map[string]error{
			"INBOX/2": errors.New("boom"),
		},
	}
	store := &fakeStore{session: session}
	svc := NewMailboxService(store, newAttachments(t), testConfig())

	result, err := svc.Ingest(context.Background(), "Acme Corp", "acme")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if result.Report.SkippedFetch != 1 {
		t.Errorf("SkippedFetch = %d, want 1", result.Report.SkippedFetch)
	}
	if result.Report.SkippedParse != 1 {
		t.Errorf("SkippedParse = %d, want 1", result.Report.SkippedParse)
	}
	if len(result.Emails) != 1 {
		t.Errorf("Emails = %d, want 1", len(result.Emails))
	}
}

func TestIngestAbortsOnConnectFailure(t *testing.T) {
	store := &fakeStore{connectErr: errors.New("refused")}
	svc := NewMailboxService(store, newAttachments(t), testConfig())

	if _, err := svc.Ingest(context.Background(), "Acme Corp", "acme"); err == nil {
		t.Error("connect failure not propagated")
	}
}

func TestIngestAbortsOnFolderFailure(t *testing.T) {
	session := &fakeSession{listErr: errors.New("no such folder")}
	store := &fakeStore{session: session}
	svc := NewMailboxService(store, newAttachments(t), testConfig())

	if _, err := svc.Ingest(context.Background(), "Acme Corp", "acme"); err == nil {
		t.Error("folder failure not propagated")
	}
	if !session.closed {
		t.Error("session not closed after aborted ingest")
	}
}

func TestIngestSweepsStaleAttachments(t *testing.T) {
	attachments := newAttachments(t)

	// A file persisted outside this crawl becomes stale.
	if _, err := attachments.Persist(context.Background(), "old", "stale.txt", "text/plain", []byte("x")); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	session := &fakeSession{
		ids: map[string][]mailbox.MessageID{
			"INBOX": {},
			"SENT":  {"1"},
		},
		raw: map[string][]byte{
			"SENT/1": relevantSentMessage(),
		},
	}
	svc := NewMailboxService(&fakeStore{session: session}, attachments, testConfig())

	result, err := svc.Ingest(context.Background(), "Acme Corp", "acme")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.Report.SweptDeleted != 1 {
		t.Errorf("SweptDeleted = %d, want 1", result.Report.SweptDeleted)
	}
}
