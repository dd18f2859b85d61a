package notifx

import "github.com/orgpost/orgpost/pkg/errx"

var notifxErrors = errx.NewRegistry("NOTIFX")

var (
	ErrSendFailed        = notifxErrors.Register("SEND_FAILED", errx.TypeExternal, 502, "Failed to send email")
	ErrInvalidMessage    = notifxErrors.Register("INVALID_MESSAGE", errx.TypeValidation, 400, "Invalid email message")
	ErrRecipientRejected = notifxErrors.Register("RECIPIENT_REJECTED", errx.TypeBusiness, 422, "Recipient rejected by provider")
	ErrTemplateNotFound  = notifxErrors.Register("TEMPLATE_NOT_FOUND", errx.TypeNotFound, 404, "Email template not found")
	ErrTemplateParse     = notifxErrors.Register("TEMPLATE_PARSE", errx.TypeValidation, 400, "Failed to parse email template")
	ErrTemplateRender    = notifxErrors.Register("TEMPLATE_RENDER", errx.TypeInternal, 500, "Failed to render email template")
)

// NewRecipientRejected builds the recoverable rejection error providers
// return when an address cannot be delivered to, e.g. an unverified
// recipient on a sandboxed account. Callers treat it as a per-recipient
// failure, never as a fatal batch error.
func NewRecipientRejected(cause error, to string) *errx.Error {
	return notifxErrors.NewWithCause(ErrRecipientRejected, cause).WithDetail("to", to)
}

// IsRecipientRejected reports whether err is a per-recipient rejection.
func IsRecipientRejected(err error) bool {
	var e *errx.Error
	if errx.As(err, &e) {
		return e.Code == ErrRecipientRejected.Code
	}
	return false
}
