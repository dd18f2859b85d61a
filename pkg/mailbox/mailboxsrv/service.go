package mailboxsrv

import (
	"context"
	"time"

	"github.com/orgpost/orgpost/pkg/attachstore"
	"github.com/orgpost/orgpost/pkg/config"
	"github.com/orgpost/orgpost/pkg/logx"
	"github.com/orgpost/orgpost/pkg/mailbox"
)

// Report counts what one ingestion cycle did. Skipped messages are
// recoverable failures (fetch or parse of a single message); they never
// abort the cycle.
type Report struct {
	Listed        int `json:"listed"`
	Relevant      int `json:"relevant"`
	SkippedFetch  int `json:"skipped_fetch"`
	SkippedParse  int `json:"skipped_parse"`
	SweptDeleted  int `json:"swept_deleted"`
	SweepFailures int `json:"sweep_failures"`
}

// IngestResult is the outcome of one full crawl of both folders.
type IngestResult struct {
	Emails []mailbox.Email `json:"emails"`
	Report Report          `json:"report"`
}

type MailboxService struct {
	store       mailbox.Store
	attachments *attachstore.Store
	inboxFolder string
	sentFolder  string
}

func NewMailboxService(store mailbox.Store, attachments *attachstore.Store, cfg config.MailboxConfig) *MailboxService {
	return &MailboxService{
		store:       store,
		attachments: attachments,
		inboxFolder: cfg.InboxFolder,
		sentFolder:  cfg.SentFolder,
	}
}

// Ingest crawls the inbox folder and then the sent folder, classifies
// every message against the organization, persists attachments of
// relevant mail and sweeps stored files nothing references anymore.
// Connection, authentication and folder-open failures abort the cycle;
// a single message failing to fetch or parse is skipped.
func (s *MailboxService) Ingest(ctx context.Context, orgName, orgSlug string) (*IngestResult, error) {
	if orgName == "" || orgSlug == "" {
		return nil, mailbox.NewParamsRequired()
	}

	session, err := s.store.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			logx.WithError(closeErr).Warn("failed to close mail session")
		}
	}()

	// Marking and sweeping are one critical section; a concurrent cycle
	// must not clear this cycle's marks before its sweep runs.
	s.attachments.BeginCycle()
	defer s.attachments.EndCycle()

	result := &IngestResult{Emails: []mailbox.Email{}}

	folders := []struct {
		logical  mailbox.Folder
		physical string
	}{
		{mailbox.FolderInbox, s.inboxFolder},
		{mailbox.FolderSent, s.sentFolder},
	}

	for _, folder := range folders {
		if err := s.crawlFolder(ctx, session, folder.logical, folder.physical, orgName, orgSlug, result); err != nil {
			return nil, err
		}
	}

	sweep, err := s.attachments.Sweep(ctx)
	if err != nil {
		// Stale files survive until the next cycle; the crawl itself
		// succeeded.
		logx.WithError(err).Warn("attachment sweep failed")
	}
	result.Report.SweptDeleted = sweep.Deleted
	result.Report.SweepFailures = sweep.Failed

	logx.WithFields(logx.Fields{
		"org_slug": orgSlug,
		"listed":   result.Report.Listed,
		"relevant": result.Report.Relevant,
		"swept":    sweep.Deleted,
	}).Info("ingestion cycle finished")

	return result, nil
}

func (s *MailboxService) crawlFolder(
	ctx context.Context,
	session mailbox.Session,
	logical mailbox.Folder,
	physical string,
	orgName, orgSlug string,
	result *IngestResult,
) error {
	ids, err := session.List(ctx, physical)
	if err != nil {
		return err
	}
	result.Report.Listed += len(ids)

	for _, id := range ids {
		raw, err := session.Fetch(ctx, physical, id)
		if err != nil {
			result.Report.SkippedFetch++
			logx.WithError(err).WithFields(logx.Fields{
				"folder": string(logical),
				"id":     string(id),
			}).Warn("skipping message that failed to fetch")
			continue
		}

		parsed, err := mailbox.ParseMessage(raw)
		if err != nil {
			result.Report.SkippedParse++
			logx.WithError(err).WithFields(logx.Fields{
				"folder": string(logical),
				"id":     string(id),
			}).Warn("skipping message that failed to parse")
			continue
		}

		if !mailbox.IsRelevant(logical, orgName, orgSlug, parsed) {
			continue
		}
		result.Report.Relevant++

		result.Emails = append(result.Emails, s.buildEmail(ctx, logical, id, parsed))
	}
	return nil
}

func (s *MailboxService) buildEmail(ctx context.Context, folder mailbox.Folder, id mailbox.MessageID, parsed *mailbox.ParsedMessage) mailbox.Email {
	emailID := string(folder) + "-" + string(id)

	email := mailbox.Email{
		ID:           emailID,
		From:         parsed.From,
		To:           parsed.To,
		Subject:      parsed.Subject,
		SentAt:       parsed.SentAt,
		PlainBody:    parsed.PlainBody,
		HTMLBody:     parsed.HTMLBody,
		Attachments:  []mailbox.Attachment{},
		SourceFolder: folder,
		Status:       mailbox.StatusUnread,
		IngestedAt:   time.Now().UTC(),
	}

	for _, blob := range parsed.Attachments {
		stored, err := s.attachments.Persist(ctx, emailID, blob.Filename, blob.ContentType, blob.Data)
		if err != nil {
			logx.WithError(err).WithFields(logx.Fields{
				"email_id": emailID,
				"filename": blob.Filename,
			}).Warn("skipping attachment that failed to persist")
			continue
		}
		email.Attachments = append(email.Attachments, mailbox.Attachment{
			OriginalFilename: stored.OriginalFilename,
			StoredFilename:   stored.StoredFilename,
			ContentType:      stored.ContentType,
			URL:              stored.URL,
		})
	}
	return email
}
