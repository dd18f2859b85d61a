package newslettersrv

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/orgpost/orgpost/pkg/config"
	"github.com/orgpost/orgpost/pkg/kernel"
	"github.com/orgpost/orgpost/pkg/newsletter"
	"github.com/orgpost/orgpost/pkg/notifx"
)

type fakeSender struct {
	mu      sync.Mutex
	sent    []notifx.EmailMessage
	failFor map[string]error
}

func (s *fakeSender) SendEmail(_ context.Context, msg notifx.EmailMessage, _ ...notifx.Option) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failFor[msg.To[0]]; err != nil {
		return err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *fakeSender) sentTo() map[string]notifx.EmailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]notifx.EmailMessage, len(s.sent))
	for _, m := range s.sent {
		out[m.To[0]] = m
	}
	return out
}

type fakeRepo struct {
	mu      sync.Mutex
	records []newsletter.SendRecord
	failFor map[string]error
}

func (r *fakeRepo) Save(_ context.Context, record newsletter.SendRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failFor[record.ReceiverAddress]; err != nil {
		return err
	}
	r.records = append(r.records, record)
	return nil
}

func (r *fakeRepo) List(_ context.Context, opts kernel.PaginationOptions) (*kernel.Paginated[newsletter.SendRecord], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := kernel.NewPaginated(r.records, opts.Page, opts.PageSize, len(r.records))
	return &result, nil
}

func newTestService(t *testing.T, sender *fakeSender, repo *fakeRepo) *NewsletterService {
	t.Helper()
	svc, err := NewNewsletterService(
		notifx.NewClient(sender),
		repo,
		config.NotifxConfig{FromAddress: "noreply@orgpost.io", FromName: "Orgpost"},
		config.DispatchConfig{Concurrency: 4, ReplyToAddress: "post@orgpost.io"},
	)
	if err != nil {
		t.Fatalf("NewNewsletterService: %v", err)
	}
	return svc
}

func testJob(recipients ...newsletter.Recipient) newsletter.SendJob {
	return newsletter.SendJob{
		SenderID:         kernel.NewMemberID("sender-1"),
		SenderName:       "Jordan from Acme",
		ReplyToExtension: "acme",
		Subject:          "March update",
		HTMLBody:         "<p>Hello members</p>",
		Recipients:       recipients,
	}
}

func TestDispatchDeliversToEveryRecipient(t *testing.T) {
	sender := &fakeSender{}
	repo := &fakeRepo{}
	svc := newTestService(t, sender, repo)

	memberID := kernel.NewMemberID("m-42")
	result, err := svc.Dispatch(context.Background(), testJob(
		newsletter.Recipient{Address: "a@example.com", MemberID: memberID},
		newsletter.Recipient{Address: "b@example.com"},
	))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if result.Attempted != 2 || result.SuccessCount != 2 || len(result.Failures) != 0 {
		t.Errorf("result = %+v", result)
	}

	sent := sender.sentTo()
	msg, ok := sent["a@example.com"]
	if !ok {
		t.Fatal("nothing sent to a@example.com")
	}
	if msg.ReplyTo != "post+acme@orgpost.io" {
		t.Errorf("ReplyTo = %q", msg.ReplyTo)
	}
	if msg.From != "Jordan from Acme <noreply@orgpost.io>" {
		t.Errorf("From = %q", msg.From)
	}
	if !strings.Contains(msg.HTMLBody, "<p>Hello members</p>") {
		t.Errorf("HTMLBody does not contain the composed body: %q", msg.HTMLBody)
	}

	if len(repo.records) != 2 {
		t.Fatalf("records = %d, want 2", len(repo.records))
	}
	for _, record := range repo.records {
		if record.Status != newsletter.StatusSent {
			t.Errorf("record status = %q", record.Status)
		}
		if record.ID == "" {
			t.Error("record has no id")
		}
		if record.SenderName != "Jordan from Acme" {
			t.Errorf("record sender name = %q", record.SenderName)
		}
		if record.Body != "<p>Hello members</p>" {
			t.Errorf("record body = %q", record.Body)
		}
		switch record.ReceiverAddress {
		case "a@example.com":
			if record.ReceiverID == nil || *record.ReceiverID != memberID {
				t.Errorf("member recipient record ReceiverID = %v", record.ReceiverID)
			}
		case "b@example.com":
			if record.ReceiverID != nil {
				t.Errorf("guest recipient record ReceiverID = %v", record.ReceiverID)
			}
		}
	}
}

func TestDispatchIsolatesFailedRecipients(t *testing.T) {
	sender := &fakeSender{failFor: map[string]error{
		"bad@example.com": errors.New("mailbox unavailable"),
	}}
	repo := &fakeRepo{}
	svc := newTestService(t, sender, repo)

	result, err := svc.Dispatch(context.Background(), testJob(
		newsletter.Recipient{Address: "a@example.com"},
		newsletter.Recipient{Address: "bad@example.com"},
		newsletter.Recipient{Address: "c@example.com"},
	))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if result.SuccessCount != 2 {
		t.Errorf("SuccessCount = %d, want 2", result.SuccessCount)
	}
	if len(result.Failures) != 1 || result.Failures[0].Address != "bad@example.com" {
		t.Errorf("Failures = %+v", result.Failures)
	}
	if result.Failures[0].Reason == "" {
		t.Error("failure has no reason")
	}

	// No record for the failed recipient.
	if len(repo.records) != 2 {
		t.Errorf("records = %d, want 2", len(repo.records))
	}
	for _, record := range repo.records {
		if record.ReceiverAddress == "bad@example.com" {
			t.Error("record persisted for failed recipient")
		}
	}
}

func TestDispatchLabelsRejectedRecipients(t *testing.T) {
	sender := &fakeSender{failFor: map[string]error{
		"unverified@example.com": notifx.NewRecipientRejected(
			errors.New("Email address is not verified"), "unverified@example.com"),
	}}
	repo := &fakeRepo{}
	svc := newTestService(t, sender, repo)

	result, err := svc.Dispatch(context.Background(), testJob(
		newsletter.Recipient{Address: "unverified@example.com"},
		newsletter.Recipient{Address: "ok@example.com"},
	))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if len(result.Failures) != 1 {
		t.Fatalf("Failures = %+v, want one", result.Failures)
	}
	failure := result.Failures[0]
	if failure.Address != "unverified@example.com" {
		t.Errorf("failed address = %q", failure.Address)
	}
	if failure.Reason != "recipient rejected by provider" {
		t.Errorf("Reason = %q, want the rejection label", failure.Reason)
	}
	if result.SuccessCount != 1 {
		t.Errorf("SuccessCount = %d, want 1", result.SuccessCount)
	}
}

func TestDispatchDeduplicatesRecipients(t *testing.T) {
	sender := &fakeSender{}
	svc := newTestService(t, sender, &fakeRepo{})

	result, err := svc.Dispatch(context.Background(), testJob(
		newsletter.Recipient{Address: "a@example.com"},
		newsletter.Recipient{Address: "a@example.com"},
		newsletter.Recipient{Address: "b@example.com"},
	))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if result.Attempted != 2 {
		t.Errorf("Attempted = %d, want 2", result.Attempted)
	}
	if len(sender.sentTo()) != 2 {
		t.Errorf("sent to %d addresses, want 2", len(sender.sentTo()))
	}
}

func TestDispatchValidation(t *testing.T) {
	svc := newTestService(t, &fakeSender{}, &fakeRepo{})

	if _, err := svc.Dispatch(context.Background(), testJob()); err == nil {
		t.Error("empty recipient list accepted")
	}

	job := testJob(newsletter.Recipient{Address: "a@example.com"})
	job.Subject = ""
	if _, err := svc.Dispatch(context.Background(), job); err == nil {
		t.Error("empty subject accepted")
	}

	job = testJob(newsletter.Recipient{Address: "a@example.com"})
	job.HTMLBody = ""
	if _, err := svc.Dispatch(context.Background(), job); err == nil {
		t.Error("empty body accepted")
	}
}

func TestDispatchCountsRecordSaveFailure(t *testing.T) {
	sender := &fakeSender{}
	repo := &fakeRepo{failFor: map[string]error{
		"a@example.com": errors.New("connection reset"),
	}}
	svc := newTestService(t, sender, repo)

	result, err := svc.Dispatch(context.Background(), testJob(
		newsletter.Recipient{Address: "a@example.com"},
		newsletter.Recipient{Address: "b@example.com"},
	))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if result.SuccessCount != 1 {
		t.Errorf("SuccessCount = %d, want 1", result.SuccessCount)
	}
	if len(result.Failures) != 1 || result.Failures[0].Address != "a@example.com" {
		t.Errorf("Failures = %+v", result.Failures)
	}
}

func TestListRecordsNormalizesPagination(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(t, &fakeSender{}, repo)

	result, err := svc.ListRecords(context.Background(), kernel.PaginationOptions{Page: 0, PageSize: 500})
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if result.Page.Number != 1 {
		t.Errorf("page = %d, want 1", result.Page.Number)
	}
	if result.Page.Size != 100 {
		t.Errorf("page size = %d, want capped at 100", result.Page.Size)
	}
}
