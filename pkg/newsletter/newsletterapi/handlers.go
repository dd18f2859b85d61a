package newsletterapi

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/orgpost/orgpost/pkg/asyncx"
	"github.com/orgpost/orgpost/pkg/jobx"
	"github.com/orgpost/orgpost/pkg/kernel"
	"github.com/orgpost/orgpost/pkg/newsletter"
	"github.com/orgpost/orgpost/pkg/newsletter/newslettersrv"
)

type NewsletterHandlers struct {
	service *newslettersrv.NewsletterService
	jobs    *jobx.Client
	timeout time.Duration
}

// NewNewsletterHandlers wires the dispatch endpoints. jobs may be nil
// when background processing is disabled; async dispatch is then
// rejected.
func NewNewsletterHandlers(service *newslettersrv.NewsletterService, jobs *jobx.Client, timeout time.Duration) *NewsletterHandlers {
	return &NewsletterHandlers{
		service: service,
		jobs:    jobs,
		timeout: timeout,
	}
}

func (h *NewsletterHandlers) RegisterRoutes(app *fiber.App) {
	app.Post("/api/v1/newsletters/dispatch", h.dispatch)
	app.Get("/api/v1/newsletters/records", h.listRecords)
	app.Get("/api/v1/jobs/:id", h.getJob)
}

func (h *NewsletterHandlers) dispatch(c *fiber.Ctx) error {
	var job newsletter.SendJob
	if err := c.BodyParser(&job); err != nil {
		return newsletter.NewInvalidJob("malformed request body")
	}

	if c.QueryBool("async", false) {
		return h.dispatchAsync(c, job)
	}

	result, err := asyncx.WithTimeout(c.Context(), h.timeout,
		func(ctx context.Context) (*newsletter.DispatchResult, error) {
			return h.service.Dispatch(ctx, job)
		})
	if err != nil {
		return err
	}

	return c.JSON(result)
}

func (h *NewsletterHandlers) dispatchAsync(c *fiber.Ctx, job newsletter.SendJob) error {
	if h.jobs == nil {
		return newsletter.NewInvalidJob("background processing is disabled")
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}

	// Sends are never retried automatically; a failed dispatch job stays
	// failed and is inspectable through the job status endpoint.
	jobID, err := h.jobs.Enqueue(c.Context(), jobx.Job{
		Type:       newslettersrv.JobTypeDispatch,
		Queue:      newslettersrv.JobQueue,
		Payload:    payload,
		MaxRetries: 1,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"job_id": jobID,
		"status": jobx.JobStatusPending,
	})
}

func (h *NewsletterHandlers) listRecords(c *fiber.Ctx) error {
	opts := kernel.PaginationOptions{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 20),
	}

	result, err := h.service.ListRecords(c.Context(), opts)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (h *NewsletterHandlers) getJob(c *fiber.Ctx) error {
	jobID := c.Params("id")
	if h.jobs == nil {
		return jobx.NewJobNotFound(jobID)
	}

	info, err := h.jobs.GetJob(c.Context(), jobID)
	if err != nil {
		return err
	}
	return c.JSON(info)
}
