package mailbox

import "github.com/orgpost/orgpost/pkg/errx"

var mailboxErrors = errx.NewRegistry("MAILBOX")

var (
	ErrParamsRequired = mailboxErrors.Register("PARAMS_REQUIRED", errx.TypeValidation, 400, "Organization name and slug are required")
	ErrParseFailed    = mailboxErrors.Register("PARSE_FAILED", errx.TypeBusiness, 422, "Failed to parse message")
)

// NewParamsRequired builds the validation error returned before any
// mail store connection is attempted.
func NewParamsRequired() *errx.Error {
	return mailboxErrors.New(ErrParamsRequired)
}
