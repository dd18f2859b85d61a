package mailboxapi

import (
	"context"
	"mime"
	"net/url"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/orgpost/orgpost/pkg/asyncx"
	"github.com/orgpost/orgpost/pkg/attachstore"
	"github.com/orgpost/orgpost/pkg/mailbox"
	"github.com/orgpost/orgpost/pkg/mailbox/mailboxsrv"
)

type MailboxHandlers struct {
	service     *mailboxsrv.MailboxService
	attachments *attachstore.Store
	timeout     time.Duration
}

func NewMailboxHandlers(service *mailboxsrv.MailboxService, attachments *attachstore.Store, timeout time.Duration) *MailboxHandlers {
	return &MailboxHandlers{
		service:     service,
		attachments: attachments,
		timeout:     timeout,
	}
}

// RegisterRoutes mounts the ingestion trigger and attachment downloads.
func (h *MailboxHandlers) RegisterRoutes(app *fiber.App) {
	app.Get("/api/v1/mailbox/ingest", h.ingest)
	app.Get("/attachments/:filename", h.downloadAttachment)
}

func (h *MailboxHandlers) ingest(c *fiber.Ctx) error {
	orgName := c.Query("org_name")
	orgSlug := c.Query("org_slug")
	if orgName == "" || orgSlug == "" {
		return mailbox.NewParamsRequired()
	}

	// A full crawl fetches every message of both folders and can take a
	// while; the timeout bounds how long a single request may hold the
	// connection.
	result, err := asyncx.WithTimeout(c.Context(), h.timeout,
		func(ctx context.Context) (*mailboxsrv.IngestResult, error) {
			return h.service.Ingest(ctx, orgName, orgSlug)
		})
	if err != nil {
		return err
	}

	return c.JSON(result)
}

func (h *MailboxHandlers) downloadAttachment(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("filename"))
	if err != nil {
		name = c.Params("filename")
	}

	stream, err := h.attachments.Open(c.Context(), name)
	if err != nil {
		return err
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Set(fiber.HeaderContentType, contentType)

	return c.SendStream(stream)
}
