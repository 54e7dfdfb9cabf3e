package scheduler

import "context"

// Job is a unit of work processed by the worker pool.
type Job interface {
	// Execute runs the job. The context carries the pool's per-job timeout.
	Execute(ctx context.Context) error

	// Description identifies the job in logs and telemetry.
	Description() string
}
