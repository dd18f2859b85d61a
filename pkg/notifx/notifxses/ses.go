package notifxses

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/orgpost/orgpost/pkg/notifx"
)

// SESProvider implements notifx.EmailSender using AWS SES. Messages with
// attachments are submitted as raw MIME since the structured SendEmail API
// cannot carry them.
type SESProvider struct {
	client      *ses.Client
	fromAddress string
}

// NewSESProvider creates a new SES email provider.
func NewSESProvider(client *ses.Client, fromAddress string) *SESProvider {
	return &SESProvider{
		client:      client,
		fromAddress: fromAddress,
	}
}

// SendEmail sends a single email via SES.
func (p *SESProvider) SendEmail(ctx context.Context, msg notifx.EmailMessage, opts ...notifx.Option) error {
	from := msg.From
	if from == "" {
		from = p.fromAddress
	}

	if len(msg.Attachments) > 0 {
		return p.sendRaw(ctx, from, msg)
	}
	return p.sendStructured(ctx, from, msg, opts...)
}

func (p *SESProvider) sendStructured(ctx context.Context, from string, msg notifx.EmailMessage, opts ...notifx.Option) error {
	so := notifx.ApplySendOptions(opts)

	body := &types.Body{}
	if msg.TextBody != "" {
		body.Text = &types.Content{
			Data:    aws.String(msg.TextBody),
			Charset: aws.String("UTF-8"),
		}
	}
	if msg.HTMLBody != "" {
		body.Html = &types.Content{
			Data:    aws.String(msg.HTMLBody),
			Charset: aws.String("UTF-8"),
		}
	}

	input := &ses.SendEmailInput{
		Source: aws.String(from),
		Destination: &types.Destination{
			ToAddresses:  msg.To,
			CcAddresses:  msg.CC,
			BccAddresses: msg.BCC,
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(msg.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: body,
		},
	}

	if msg.ReplyTo != "" {
		input.ReplyToAddresses = []string{msg.ReplyTo}
	}
	if so.ConfigID != "" {
		input.ConfigurationSetName = aws.String(so.ConfigID)
	}
	for k, v := range so.Tags {
		input.Tags = append(input.Tags, types.MessageTag{
			Name:  aws.String(k),
			Value: aws.String(v),
		})
	}

	if _, err := p.client.SendEmail(ctx, input); err != nil {
		return p.classify(err, msg)
	}
	return nil
}

func (p *SESProvider) sendRaw(ctx context.Context, from string, msg notifx.EmailMessage) error {
	raw, err := buildRawMessage(from, msg)
	if err != nil {
		return sesErrors.NewWithCause(ErrBuildMessage, err).WithDetail("subject", msg.Subject)
	}

	input := &ses.SendRawEmailInput{
		Source:       aws.String(from),
		Destinations: rawDestinations(msg),
		RawMessage:   &types.RawMessage{Data: raw},
	}

	if _, err := p.client.SendRawEmail(ctx, input); err != nil {
		return p.classify(err, msg)
	}
	return nil
}

// rawDestinations collects every envelope recipient of a raw send. SES
// only delivers to addresses listed here; the Cc header alone does not
// cause delivery, and Bcc addresses never appear in headers at all.
func rawDestinations(msg notifx.EmailMessage) []string {
	dests := make([]string, 0, len(msg.To)+len(msg.CC)+len(msg.BCC))
	dests = append(dests, msg.To...)
	dests = append(dests, msg.CC...)
	dests = append(dests, msg.BCC...)
	return dests
}

// classify maps SES rejections of individual addresses (sandboxed account,
// unverified recipient) to the recoverable per-recipient error; everything
// else is a provider failure.
func (p *SESProvider) classify(err error, msg notifx.EmailMessage) error {
	to := ""
	if len(msg.To) > 0 {
		to = msg.To[0]
	}

	var rejected *types.MessageRejected
	if errors.As(err, &rejected) || strings.Contains(err.Error(), "not verified") {
		return notifx.NewRecipientRejected(err, to)
	}

	return sesErrors.NewWithCause(ErrSendFailed, err).
		WithDetail("to", msg.To).
		WithDetail("subject", msg.Subject)
}

// buildRawMessage assembles a multipart/mixed MIME message with an inline
// alternative section followed by base64-encoded attachment parts.
func buildRawMessage(from string, msg notifx.EmailMessage) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(msg.To, ", "))
	if len(msg.CC) > 0 {
		fmt.Fprintf(&buf, "Cc: %s\r\n", strings.Join(msg.CC, ", "))
	}
	if msg.ReplyTo != "" {
		fmt.Fprintf(&buf, "Reply-To: %s\r\n", msg.ReplyTo)
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n", writer.Boundary())
	buf.WriteString("\r\n")

	if msg.TextBody != "" {
		if err := writeInlinePart(writer, "text/plain", msg.TextBody); err != nil {
			return nil, err
		}
	}
	if msg.HTMLBody != "" {
		if err := writeInlinePart(writer, "text/html", msg.HTMLBody); err != nil {
			return nil, err
		}
	}

	for _, att := range msg.Attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		header := textproto.MIMEHeader{}
		header.Set("Content-Type", contentType)
		header.Set("Content-Transfer-Encoding", "base64")
		header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.Filename))

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, err
		}

		encoded := base64.StdEncoding.EncodeToString(att.Data)
		// 76-char lines per RFC 2045.
		for len(encoded) > 0 {
			n := 76
			if n > len(encoded) {
				n = len(encoded)
			}
			if _, err := part.Write([]byte(encoded[:n] + "\r\n")); err != nil {
				return nil, err
			}
			encoded = encoded[n:]
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeInlinePart(writer *multipart.Writer, contentType, body string) error {
	header := textproto.MIMEHeader{}
	header.Set("Content-Type", contentType+"; charset=UTF-8")
	header.Set("Content-Transfer-Encoding", "8bit")

	part, err := writer.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = part.Write([]byte(body))
	return err
}
