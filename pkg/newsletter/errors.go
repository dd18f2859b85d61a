package newsletter

import "github.com/orgpost/orgpost/pkg/errx"

var newsletterErrors = errx.NewRegistry("NEWSLETTER")

var (
	ErrInvalidJob       = newsletterErrors.Register("INVALID_JOB", errx.TypeValidation, 400, "Newsletter subject and body are required")
	ErrNoRecipients     = newsletterErrors.Register("NO_RECIPIENTS", errx.TypeValidation, 400, "Newsletter has no recipients")
	ErrRecordSaveFailed = newsletterErrors.Register("RECORD_SAVE_FAILED", errx.TypeInternal, 500, "Failed to save send record")
	ErrRecordListFailed = newsletterErrors.Register("RECORD_LIST_FAILED", errx.TypeInternal, 500, "Failed to list send records")
)

// NewInvalidJob flags a dispatch request missing required content.
func NewInvalidJob(reason string) *errx.Error {
	return newsletterErrors.New(ErrInvalidJob).WithDetail("reason", reason)
}

// NewNoRecipients flags a dispatch whose recipient list is empty after
// deduplication.
func NewNoRecipients() *errx.Error {
	return newsletterErrors.New(ErrNoRecipients)
}

// NewRecordSaveFailed wraps a storage failure while persisting a send
// record.
func NewRecordSaveFailed(cause error) *errx.Error {
	return newsletterErrors.NewWithCause(ErrRecordSaveFailed, cause)
}

// NewRecordListFailed wraps a storage failure while listing send records.
func NewRecordListFailed(cause error) *errx.Error {
	return newsletterErrors.NewWithCause(ErrRecordListFailed, cause)
}
