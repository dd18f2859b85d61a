package newslettersrv

import (
	"context"
	"encoding/json"

	"github.com/orgpost/orgpost/pkg/jobx"
	"github.com/orgpost/orgpost/pkg/logx"
	"github.com/orgpost/orgpost/pkg/newsletter"
)

// JobTypeDispatch is the job type for background newsletter dispatches.
const JobTypeDispatch = "newsletter.dispatch"

// JobQueue is the queue background dispatches run on.
const JobQueue = "newsletters"

// DispatchJobHandler returns the jobx handler that runs a queued
// dispatch. Validation errors are permanent; the handler returns them so
// the job fails, and jobx decides whether to retry.
func (s *NewsletterService) DispatchJobHandler() jobx.HandlerFunc {
	return func(ctx context.Context, job *jobx.JobInfo) error {
		var sendJob newsletter.SendJob
		if err := json.Unmarshal(job.Payload, &sendJob); err != nil {
			return err
		}

		result, err := s.Dispatch(ctx, sendJob)
		if err != nil {
			return err
		}

		logx.WithFields(logx.Fields{
			"job_id":    job.ID,
			"delivered": result.SuccessCount,
			"failed":    len(result.Failures),
		}).Info("background newsletter dispatch finished")
		return nil
	}
}
