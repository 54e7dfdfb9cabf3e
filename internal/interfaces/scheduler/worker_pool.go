// Package scheduler runs sync work periodically and on demand through a
// small worker pool.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	jobTracer          = otel.Tracer("akasync/scheduler")
	jobMeter           = otel.Meter("akasync/scheduler")
	jobDuration, _     = jobMeter.Float64Histogram("scheduler.job.duration", metric.WithDescription("Job execution duration in seconds"), metric.WithUnit("s"))
	jobTotal, _        = jobMeter.Int64Counter("scheduler.job.total", metric.WithDescription("Total jobs executed by status"))
	jobQueueDropped, _ = jobMeter.Int64Counter("scheduler.job.queue_dropped", metric.WithDescription("Jobs dropped due to full queue"))
)

// jobTimeout bounds a single job execution. A sync run normally finishes
// in seconds; a cold start against years of history can take longer.
const jobTimeout = 10 * time.Minute

// WorkerPool processes jobs from a bounded queue with a fixed number of
// worker goroutines. Overlapping sync runs are allowed; the store's
// idempotent upsert makes them convergent.
type WorkerPool struct {
	workerCount int
	jobs        chan Job
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	log         zerolog.Logger
}

func NewWorkerPool(workerCount, queueSize int, log zerolog.Logger) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		workerCount: workerCount,
		jobs:        make(chan Job, queueSize),
		ctx:         ctx,
		cancel:      cancel,
		log:         log.With().Str("component", "worker_pool").Logger(),
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start() {
	wp.log.Info().Int("workers", wp.workerCount).Msg("starting worker pool")
	for i := 1; i <= wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			return
		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			wp.processJob(id, job)
		}
	}
}

func (wp *WorkerPool) processJob(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(wp.ctx, jobTimeout)
	defer cancel()

	ctx, span := jobTracer.Start(ctx, "job.execute",
		trace.WithAttributes(
			attribute.Int("worker.id", workerID),
			attribute.String("job.description", job.Description()),
		),
	)
	defer span.End()

	wp.log.Debug().Int("worker", workerID).Str("job", job.Description()).Msg("processing job")
	start := time.Now()

	err := job.Execute(ctx)
	jobDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		jobTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "error")))
		wp.log.Error().Err(err).Int("worker", workerID).Str("job", job.Description()).Msg("job failed")
		return
	}

	jobTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "success")))
	wp.log.Info().Int("worker", workerID).Str("job", job.Description()).Dur("took", time.Since(start)).Msg("job completed")
}

// Submit enqueues a job without blocking. A full queue drops the job and
// returns an error so the caller can surface it.
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	case wp.jobs <- job:
		return nil
	default:
		jobQueueDropped.Add(context.Background(), 1)
		wp.log.Warn().Str("job", job.Description()).Msg("job queue full, dropping job")
		return fmt.Errorf("job queue full, dropped %s", job.Description())
	}
}

// ShutdownWithTimeout closes the queue and waits for in-flight jobs,
// cancelling them if the timeout elapses first.
func (wp *WorkerPool) ShutdownWithTimeout(timeout time.Duration) {
	close(wp.jobs)

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		wp.log.Info().Msg("worker pool drained")
	case <-time.After(timeout):
		wp.log.Warn().Msg("worker pool shutdown timeout, cancelling jobs")
	}
	wp.cancel()
}
