package attachstore

import (
	"net/http"

	"github.com/orgpost/orgpost/pkg/errx"
)

var storeErrors = errx.NewRegistry("ATTACHSTORE")

var (
	ErrPersistFailed = storeErrors.Register("PERSIST_FAILED", errx.TypeExternal,
		http.StatusBadGateway, "failed to persist attachment")
	ErrNotFound = storeErrors.Register("NOT_FOUND", errx.TypeNotFound,
		http.StatusNotFound, "attachment not found")
	ErrSweepFailed = storeErrors.Register("SWEEP_FAILED", errx.TypeExternal,
		http.StatusBadGateway, "failed to sweep attachment store")
)
