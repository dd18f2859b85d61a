package notifxconsole

import (
	"context"
	"strings"

	"github.com/orgpost/orgpost/pkg/logx"
	"github.com/orgpost/orgpost/pkg/notifx"
)

// ConsoleProvider logs emails instead of sending them. Intended for
// development and testing.
type ConsoleProvider struct{}

// NewConsoleProvider creates a console email provider.
func NewConsoleProvider() *ConsoleProvider {
	return &ConsoleProvider{}
}

// SendEmail logs the email details.
func (p *ConsoleProvider) SendEmail(_ context.Context, msg notifx.EmailMessage, _ ...notifx.Option) error {
	logx.WithFields(logx.Fields{
		"from":        msg.From,
		"to":          strings.Join(msg.To, ", "),
		"subject":     msg.Subject,
		"attachments": len(msg.Attachments),
	}).Info("notifx/console: email sent (dev mode)")

	if msg.HTMLBody != "" {
		logx.Debugf("notifx/console: html body:\n%s", msg.HTMLBody)
	}

	return nil
}
