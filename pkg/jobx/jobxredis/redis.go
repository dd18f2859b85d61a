package jobxredis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/orgpost/orgpost/pkg/jobx"
)

// RedisQueue implements jobx.Queue backed by Redis: a list per ready
// queue, a sorted set per scheduled queue, and one key per job record.
type RedisQueue struct {
	rdb *redis.Client
}

// NewRedisQueue creates a Redis-backed queue.
func NewRedisQueue(rdb *redis.Client) *RedisQueue {
	return &RedisQueue{rdb: rdb}
}

func queueKey(name string) string     { return fmt.Sprintf("jobx:queue:%s", name) }
func scheduledKey(name string) string { return fmt.Sprintf("jobx:scheduled:%s", name) }
func jobKey(id string) string         { return fmt.Sprintf("jobx:job:%s", id) }

// Enqueue adds a job to the ready queue.
func (q *RedisQueue) Enqueue(ctx context.Context, job jobx.Job) (string, error) {
	id := uuid.New().String()

	data, err := json.Marshal(newJobInfo(id, job))
	if err != nil {
		return "", redisErrors.NewWithCause(ErrMarshal, err)
	}

	pipe := q.rdb.Pipeline()
	pipe.Set(ctx, jobKey(id), data, 0)
	pipe.LPush(ctx, queueKey(job.Queue), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", redisErrors.NewWithCause(ErrEnqueue, err).WithDetail("queue", job.Queue)
	}

	return id, nil
}

// EnqueueDelayed adds a job to the scheduled set with a future ready time.
func (q *RedisQueue) EnqueueDelayed(ctx context.Context, job jobx.Job, delay time.Duration) (string, error) {
	id := uuid.New().String()

	info := newJobInfo(id, job)
	data, err := json.Marshal(info)
	if err != nil {
		return "", redisErrors.NewWithCause(ErrMarshal, err)
	}

	score := float64(info.CreatedAt.Add(delay).Unix())

	pipe := q.rdb.Pipeline()
	pipe.Set(ctx, jobKey(id), data, 0)
	pipe.ZAdd(ctx, scheduledKey(job.Queue), redis.Z{Score: score, Member: id})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", redisErrors.NewWithCause(ErrEnqueue, err).
			WithDetail("queue", job.Queue).
			WithDetail("delay", delay.String())
	}

	return id, nil
}

func newJobInfo(id string, job jobx.Job) jobx.JobInfo {
	now := time.Now().UTC()
	return jobx.JobInfo{
		ID:         id,
		Type:       job.Type,
		Queue:      job.Queue,
		Payload:    job.Payload,
		Status:     jobx.JobStatusPending,
		MaxRetries: job.MaxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// GetJob retrieves a job record by ID.
func (q *RedisQueue) GetJob(ctx context.Context, jobID string) (*jobx.JobInfo, error) {
	data, err := q.rdb.Get(ctx, jobKey(jobID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, redisErrors.New(ErrNotFound).WithDetail("job_id", jobID)
		}
		return nil, redisErrors.NewWithCause(ErrGetJob, err).WithDetail("job_id", jobID)
	}

	var info jobx.JobInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, redisErrors.NewWithCause(ErrUnmarshal, err).WithDetail("job_id", jobID)
	}

	return &info, nil
}

// Dequeue blocks until a job is available or the timeout expires. A nil
// job with nil error means timeout.
func (q *RedisQueue) Dequeue(ctx context.Context, queues []string, timeout time.Duration) (*jobx.JobInfo, error) {
	keys := make([]string, len(queues))
	for i, name := range queues {
		keys[i] = queueKey(name)
	}

	result, err := q.rdb.BRPop(ctx, timeout, keys...).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		if ctx.Err() != nil {
			return nil, nil
		}
		return nil, redisErrors.NewWithCause(ErrDequeue, err)
	}

	// result[0] is the key, result[1] the job ID.
	info, err := q.GetJob(ctx, result[1])
	if err != nil {
		return nil, err
	}

	info.Status = jobx.JobStatusActive
	info.Attempts++
	info.UpdatedAt = time.Now().UTC()

	if err := q.save(ctx, info); err != nil {
		return nil, err
	}
	return info, nil
}

// Complete marks a job as successfully finished.
func (q *RedisQueue) Complete(ctx context.Context, jobID string, result []byte) error {
	info, err := q.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	info.Status = jobx.JobStatusCompleted
	info.Result = result
	info.UpdatedAt = time.Now().UTC()

	if err := q.save(ctx, info); err != nil {
		return redisErrors.NewWithCause(ErrComplete, err).WithDetail("job_id", jobID)
	}
	return nil
}

// Fail records a failure and reports whether the job has retries left.
func (q *RedisQueue) Fail(ctx context.Context, jobID string, errMsg string) (bool, error) {
	info, err := q.GetJob(ctx, jobID)
	if err != nil {
		return false, err
	}

	retry := info.Attempts < info.MaxRetries
	info.Error = errMsg
	info.UpdatedAt = time.Now().UTC()
	if retry {
		info.Status = jobx.JobStatusRetrying
	} else {
		info.Status = jobx.JobStatusFailed
	}

	if err := q.save(ctx, info); err != nil {
		return false, redisErrors.NewWithCause(ErrFail, err).WithDetail("job_id", jobID)
	}
	return retry, nil
}

// Retry schedules a failed job to run again after delay.
func (q *RedisQueue) Retry(ctx context.Context, jobID string, delay time.Duration) error {
	info, err := q.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	score := float64(time.Now().UTC().Add(delay).Unix())
	if err := q.rdb.ZAdd(ctx, scheduledKey(info.Queue), redis.Z{Score: score, Member: jobID}).Err(); err != nil {
		return redisErrors.NewWithCause(ErrRetry, err).WithDetail("job_id", jobID)
	}
	return nil
}

// PromoteScheduled moves due jobs from the scheduled sets into the ready
// queues.
func (q *RedisQueue) PromoteScheduled(ctx context.Context, queues []string) error {
	now := fmt.Sprintf("%d", time.Now().UTC().Unix())

	for _, queue := range queues {
		ids, err := q.rdb.ZRangeByScore(ctx, scheduledKey(queue), &redis.ZRangeBy{
			Min: "-inf",
			Max: now,
		}).Result()
		if err != nil {
			return redisErrors.NewWithCause(ErrPromote, err).WithDetail("queue", queue)
		}

		for _, id := range ids {
			pipe := q.rdb.Pipeline()
			pipe.ZRem(ctx, scheduledKey(queue), id)
			pipe.LPush(ctx, queueKey(queue), id)
			if _, err := pipe.Exec(ctx); err != nil {
				return redisErrors.NewWithCause(ErrPromote, err).
					WithDetail("queue", queue).
					WithDetail("job_id", id)
			}
		}
	}
	return nil
}

func (q *RedisQueue) save(ctx context.Context, info *jobx.JobInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return redisErrors.NewWithCause(ErrMarshal, err).WithDetail("job_id", info.ID)
	}
	return q.rdb.Set(ctx, jobKey(info.ID), data, 0).Err()
}
