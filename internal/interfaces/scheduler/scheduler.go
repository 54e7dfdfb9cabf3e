package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Scheduler submits a fresh sync job to the worker pool at a fixed
// interval, and optionally once at startup.
type Scheduler struct {
	pool         *WorkerPool
	interval     time.Duration
	runOnStartup bool
	newJob       func() Job

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    zerolog.Logger
}

type Config struct {
	Interval     time.Duration
	RunOnStartup bool
	Workers      int
	QueueSize    int
}

// New creates a scheduler that obtains each run's job from newJob.
func New(cfg Config, newJob func() Job, log zerolog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		pool:         NewWorkerPool(cfg.Workers, cfg.QueueSize, log),
		interval:     cfg.Interval,
		runOnStartup: cfg.RunOnStartup,
		newJob:       newJob,
		ctx:          ctx,
		cancel:       cancel,
		log:          log.With().Str("component", "scheduler").Logger(),
	}
}

// Start launches the worker pool and the interval loop.
func (s *Scheduler) Start() {
	s.pool.Start()

	if s.runOnStartup {
		s.log.Info().Msg("running initial sync on startup")
		s.submit(s.newJob())
	}

	s.wg.Add(1)
	go s.loop()

	s.log.Info().Dur("interval", s.interval).Msg("scheduler started")
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.submit(s.newJob())
		}
	}
}

func (s *Scheduler) submit(job Job) {
	if err := s.pool.Submit(job); err != nil {
		s.log.Warn().Err(err).Msg("failed to submit scheduled job")
	}
}

// Submit enqueues an on-demand job (e.g. a refresh requested over HTTP)
// onto the same pool as the periodic syncs.
func (s *Scheduler) Submit(job Job) error {
	return s.pool.Submit(job)
}

// Shutdown stops the interval loop and drains the pool.
func (s *Scheduler) Shutdown(timeout time.Duration) {
	s.cancel()
	s.wg.Wait()
	s.pool.ShutdownWithTimeout(timeout)
	s.log.Info().Msg("scheduler stopped")
}
