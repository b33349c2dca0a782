package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"retailworks/internal/dto"
	"retailworks/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueReorder = "jobs:reorder"
	QueueEmail   = "jobs:email"

	JobReorder = "reorder"
	JobEmail   = "email"

	// MaxJobAttempts is how many times a job runs before it is dead-lettered.
	MaxJobAttempts = 3

	reorderAlertPrefix = "reorder:alert:"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Handler processes one job payload. A returned error schedules a retry.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb        *redis.Client
	reorderTTL time.Duration
}

func NewDispatcher(rdb *redis.Client, reorderTTL time.Duration) *Dispatcher {
	if reorderTTL <= 0 {
		reorderTTL = time.Hour
	}
	return &Dispatcher{rdb: rdb, reorderTTL: reorderTTL}
}

// NotifyReorder enqueues a reorder alert unless one was already raised for the
// same product and location within the dedupe window.
func (d *Dispatcher) NotifyReorder(ctx context.Context, signal dto.ReorderSignal) error {
	key := reorderAlertPrefix + signal.ProductID + ":" + signal.LocationCode
	fresh, err := d.rdb.SetNX(ctx, key, signal.EmittedAt, d.reorderTTL).Result()
	if err != nil {
		return fmt.Errorf("reorder dedupe: %w", err)
	}
	if !fresh {
		metrics.ReorderSignals.WithLabelValues("deduplicated").Inc()
		return nil
	}
	if err := d.enqueue(ctx, QueueReorder, JobReorder, signal); err != nil {
		// Let the next signal retry instead of waiting out the TTL.
		d.rdb.Del(context.WithoutCancel(ctx), key)
		return err
	}
	metrics.ReorderSignals.WithLabelValues("emitted").Inc()
	return nil
}

// EnqueueEmail pushes an email job to Redis.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, JobEmail, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Pool consumes the job queues with a fixed number of goroutines.
type Pool struct {
	rdb      *redis.Client
	handlers map[string]Handler
	queues   []string
}

func NewPool(rdb *redis.Client, handlers map[string]Handler) *Pool {
	return &Pool{rdb: rdb, handlers: handlers, queues: []string{QueueReorder, QueueEmail}}
}

// Start launches numWorkers goroutines consuming all queues.
// Each goroutine blocks on BRPOP, so idle workers use no CPU when idle.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go p.run(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) run(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, p.queues...).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					log.Warn().Err(err).Int("worker", id).Msg("queue pop failed")
					time.Sleep(time.Second)
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			p.process(ctx, result[0], result[1])
		}
	}
}

func (p *Pool) process(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, p.rdb, queue, "unknown", json.RawMessage(raw), "malformed envelope", 0)
		return
	}
	handler, ok := p.handlers[job.Type]
	if !ok {
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, "no handler registered", job.Attempts)
		return
	}

	job.Attempts++
	err := handler(ctx, job.Payload)
	if err == nil {
		metrics.QueueJobsProcessed.WithLabelValues(queue, "success").Inc()
		return
	}

	metrics.QueueJobsProcessed.WithLabelValues(queue, "failed").Inc()
	if job.Attempts >= MaxJobAttempts {
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, err.Error(), job.Attempts)
		return
	}
	log.Warn().Err(err).Str("queue", queue).Str("type", job.Type).Int("attempt", job.Attempts).
		Msg("job failed, requeueing")
	encoded, merr := json.Marshal(job)
	if merr != nil {
		log.Error().Err(merr).Msg("failed to re-encode job")
		return
	}
	if perr := p.rdb.LPush(ctx, queue, encoded).Err(); perr != nil {
		log.Error().Err(perr).Str("queue", queue).Msg("failed to requeue job")
	}
}
