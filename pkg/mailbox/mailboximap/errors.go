package mailboximap

import "github.com/orgpost/orgpost/pkg/errx"

var imapErrors = errx.NewRegistry("MAILBOX_IMAP")

var (
	ErrDial   = imapErrors.Register("DIAL", errx.TypeExternal, 502, "Failed to connect to IMAP server")
	ErrLogin  = imapErrors.Register("LOGIN", errx.TypeExternal, 502, "IMAP authentication failed")
	ErrSelect = imapErrors.Register("SELECT", errx.TypeExternal, 502, "Failed to select IMAP folder")
	ErrSearch = imapErrors.Register("SEARCH", errx.TypeExternal, 502, "IMAP search failed")
	ErrFetch  = imapErrors.Register("FETCH", errx.TypeExternal, 502, "IMAP fetch failed")
)
