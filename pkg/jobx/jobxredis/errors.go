package jobxredis

import "github.com/orgpost/orgpost/pkg/errx"

var redisErrors = errx.NewRegistry("JOBX_REDIS")

var (
	ErrMarshal   = redisErrors.Register("MARSHAL", errx.TypeInternal, 500, "Failed to encode job")
	ErrUnmarshal = redisErrors.Register("UNMARSHAL", errx.TypeInternal, 500, "Failed to decode job")
	ErrEnqueue   = redisErrors.Register("ENQUEUE", errx.TypeExternal, 502, "Failed to enqueue job")
	ErrDequeue   = redisErrors.Register("DEQUEUE", errx.TypeExternal, 502, "Failed to dequeue job")
	ErrGetJob    = redisErrors.Register("GET_JOB", errx.TypeExternal, 502, "Failed to load job")
	ErrNotFound  = redisErrors.Register("NOT_FOUND", errx.TypeNotFound, 404, "Job not found")
	ErrComplete  = redisErrors.Register("COMPLETE", errx.TypeExternal, 502, "Failed to complete job")
	ErrFail      = redisErrors.Register("FAIL", errx.TypeExternal, 502, "Failed to mark job failed")
	ErrRetry     = redisErrors.Register("RETRY", errx.TypeExternal, 502, "Failed to schedule retry")
	ErrPromote   = redisErrors.Register("PROMOTE", errx.TypeExternal, 502, "Failed to promote scheduled jobs")
)
