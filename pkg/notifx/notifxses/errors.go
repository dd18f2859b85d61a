package notifxses

import "github.com/orgpost/orgpost/pkg/errx"

var sesErrors = errx.NewRegistry("NOTIFX_SES")

var (
	ErrSendFailed   = sesErrors.Register("SEND_FAILED", errx.TypeExternal, 502, "SES send email failed")
	ErrBuildMessage = sesErrors.Register("BUILD_MESSAGE", errx.TypeInternal, 500, "Failed to build SES message")
)
