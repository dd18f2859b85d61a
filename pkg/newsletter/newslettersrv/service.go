package newslettersrv

import (
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/google/uuid"

	"github.com/orgpost/orgpost/pkg/asyncx"
	"github.com/orgpost/orgpost/pkg/config"
	"github.com/orgpost/orgpost/pkg/kernel"
	"github.com/orgpost/orgpost/pkg/logx"
	"github.com/orgpost/orgpost/pkg/newsletter"
	"github.com/orgpost/orgpost/pkg/notifx"
	"github.com/orgpost/orgpost/pkg/ptrx"
)

const layoutTemplate = "newsletter.layout"

// layoutHTML wraps the composed body in the shared newsletter frame.
const layoutHTML = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background-color:#f4f4f4;">
	<table role="presentation" width="100%" cellpadding="0" cellspacing="0">
		<tr><td align="center" style="padding:24px;">
			<table role="presentation" width="600" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:8px;">
				<tr><td style="padding:32px;font-family:Arial,sans-serif;color:#1a1a1a;">
					{{.Body}}
				</td></tr>
				<tr><td style="padding:16px 32px;font-family:Arial,sans-serif;font-size:12px;color:#888888;border-top:1px solid #eeeeee;">
					Sent by {{.SenderName}}. Reply to this email to reach the organization.
				</td></tr>
			</table>
		</td></tr>
	</table>
</body>
</html>`

type layoutData struct {
	Body       template.HTML
	SenderName string
}

type sendOutcome struct {
	address string
	ok      bool
	reason  string
}

type NewsletterService struct {
	mailer   *notifx.Client
	records  newsletter.RecordRepository
	sender   config.NotifxConfig
	dispatch config.DispatchConfig
	now      func() time.Time
}

func NewNewsletterService(
	mailer *notifx.Client,
	records newsletter.RecordRepository,
	sender config.NotifxConfig,
	dispatch config.DispatchConfig,
) (*NewsletterService, error) {
	if err := mailer.RegisterTemplate(layoutTemplate, layoutHTML); err != nil {
		return nil, err
	}
	return &NewsletterService{
		mailer:   mailer,
		records:  records,
		sender:   sender,
		dispatch: dispatch,
		now:      time.Now,
	}, nil
}

// Dispatch fans the newsletter out to every recipient with bounded
// concurrency. One recipient failing, at submission or at record
// persistence, never affects the others; the result reports both the
// delivered count and every failure.
func (s *NewsletterService) Dispatch(ctx context.Context, job newsletter.SendJob) (*newsletter.DispatchResult, error) {
	if job.Subject == "" {
		return nil, newsletter.NewInvalidJob("subject is empty")
	}
	if job.HTMLBody == "" {
		return nil, newsletter.NewInvalidJob("body is empty")
	}

	recipients := newsletter.DedupeRecipients(job.Recipients)
	if len(recipients) == 0 {
		return nil, newsletter.NewNoRecipients()
	}

	from := s.fromHeader(job.SenderName)
	replyTo := newsletter.ReplyToAddress(s.dispatch.ReplyToAddress, job.ReplyToExtension)
	data := layoutData{
		Body:       template.HTML(job.HTMLBody),
		SenderName: job.SenderName,
	}

	outcomes, err := asyncx.Pool(ctx, s.dispatch.Concurrency, recipients,
		func(ctx context.Context, r newsletter.Recipient) (sendOutcome, error) {
			return s.sendOne(ctx, job, r, from, replyTo, data), nil
		})
	if err != nil {
		return nil, err
	}

	result := &newsletter.DispatchResult{
		Attempted: len(recipients),
		Failures:  []newsletter.SendFailure{},
	}
	for _, o := range outcomes {
		if o.ok {
			result.SuccessCount++
			continue
		}
		result.Failures = append(result.Failures, newsletter.SendFailure{
			Address: o.address,
			Reason:  o.reason,
		})
	}

	logx.WithFields(logx.Fields{
		"subject":   job.Subject,
		"attempted": result.Attempted,
		"delivered": result.SuccessCount,
		"failed":    len(result.Failures),
	}).Info("newsletter dispatch finished")

	return result, nil
}

// sendOne always reports through the outcome so a recipient failure can
// never short-circuit the pool.
func (s *NewsletterService) sendOne(
	ctx context.Context,
	job newsletter.SendJob,
	r newsletter.Recipient,
	from, replyTo string,
	data layoutData,
) sendOutcome {
	msg := notifx.EmailMessage{
		From:        from,
		To:          []string{r.Address},
		ReplyTo:     replyTo,
		Subject:     job.Subject,
		Attachments: job.Attachments,
	}

	if err := s.mailer.SendTemplatedEmail(ctx, layoutTemplate, data, msg); err != nil {
		logx.WithError(err).WithField("to", r.Address).Warn("newsletter send failed")
		reason := err.Error()
		if notifx.IsRecipientRejected(err) {
			reason = "recipient rejected by provider"
		}
		return sendOutcome{address: r.Address, reason: reason}
	}

	record := newsletter.SendRecord{
		ID:              uuid.NewString(),
		SenderID:        job.SenderID,
		SenderName:      job.SenderName,
		ReceiverAddress: r.Address,
		Subject:         job.Subject,
		Body:            job.HTMLBody,
		Status:          newsletter.StatusSent,
		SentAt:          s.now().UTC(),
	}
	if !r.MemberID.IsEmpty() {
		record.ReceiverID = ptrx.Ptr(r.MemberID)
	}

	if err := s.records.Save(ctx, record); err != nil {
		logx.WithError(err).WithField("to", r.Address).Error("failed to save send record")
		return sendOutcome{address: r.Address, reason: "delivered but send record not persisted"}
	}

	return sendOutcome{address: r.Address, ok: true}
}

// ListRecords returns one page of send records, newest first.
func (s *NewsletterService) ListRecords(ctx context.Context, opts kernel.PaginationOptions) (*kernel.Paginated[newsletter.SendRecord], error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize < 1 {
		opts.PageSize = 20
	}
	if opts.PageSize > 100 {
		opts.PageSize = 100
	}
	return s.records.List(ctx, opts)
}

func (s *NewsletterService) fromHeader(senderName string) string {
	name := senderName
	if name == "" {
		name = s.sender.FromName
	}
	return fmt.Sprintf("%s <%s>", name, s.sender.FromAddress)
}
