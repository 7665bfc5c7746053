package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/loykin/dockhand/internal/metrics"
	"github.com/loykin/dockhand/internal/model"
	"github.com/loykin/dockhand/internal/service"
	"github.com/loykin/dockhand/internal/store"
)

// Runner drains Pending jobs in batches and launches them through the
// job service. A failed launch marks the job Failed; a failed fetch
// backs off for IdleSleep.
type Runner struct {
	Jobs      store.JobRepository
	Service   *service.JobService
	BatchSize int
	IdleSleep time.Duration
}

func (r *Runner) Name() string { return "runner" }

func (r *Runner) Run(ctx context.Context) error {
	batch := r.BatchSize
	if batch <= 0 {
		batch = 5
	}
	idle := r.IdleSleep
	if idle <= 0 {
		idle = 10 * time.Second
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		pending, err := r.Jobs.List(ctx, model.JobFilter{
			Statuses: []model.JobStatus{model.JobStatusPending},
			Limit:    batch,
		})
		if err != nil {
			slog.Error("runner: fetching pending jobs failed", "error", err)
			metrics.IncLoopError("runner")
			if !sleep(ctx, idle) {
				return ctx.Err()
			}
			continue
		}
		if len(pending) == 0 {
			if !sleep(ctx, idle) {
				return ctx.Err()
			}
			continue
		}

		for _, job := range pending {
			if err := r.Service.RunPending(ctx, job); err != nil {
				slog.Error("runner: launching job failed", "job_id", job.ID, "error", err)
				metrics.IncLoopError("runner")
				if err := r.Service.MarkFailed(ctx, job.ID, err); err != nil {
					slog.Error("runner: marking job failed failed", "job_id", job.ID, "error", err)
				}
			}
		}
	}
}
