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

// Tracker polls all Running jobs and reconciles them with the container
// runtime's view. An error tracking one job fails that job; a fetch
// error backs off for IdleSleep. It also sweeps expired job logs.
type Tracker struct {
	Jobs      store.JobRepository
	Service   *service.JobService
	PollSleep time.Duration
	IdleSleep time.Duration
}

func (t *Tracker) Name() string { return "tracker" }

func (t *Tracker) Run(ctx context.Context) error {
	poll := t.PollSleep
	if poll <= 0 {
		poll = 2 * time.Second
	}
	idle := t.IdleSleep
	if idle <= 0 {
		idle = 10 * time.Second
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		running, err := t.Jobs.List(ctx, model.JobFilter{
			Statuses: []model.JobStatus{model.JobStatusRunning},
		})
		if err != nil {
			slog.Error("tracker: fetching running jobs failed", "error", err)
			metrics.IncLoopError("tracker")
			if !sleep(ctx, idle) {
				return ctx.Err()
			}
			continue
		}
		metrics.SetRunningJobs(float64(len(running)))

		if len(running) == 0 {
			if !sleep(ctx, idle) {
				return ctx.Err()
			}
			continue
		}

		for _, job := range running {
			if err := t.Service.TrackRunning(ctx, job); err != nil {
				slog.Error("tracker: tracking job failed", "job_id", job.ID, "error", err)
				metrics.IncLoopError("tracker")
				if err := t.Service.MarkFailed(ctx, job.ID, err); err != nil {
					slog.Error("tracker: marking job failed failed", "job_id", job.ID, "error", err)
				}
			}
		}

		if err := t.Service.SweepExpiredLogs(ctx, time.Now().UTC()); err != nil {
			slog.Error("tracker: sweeping expired logs failed", "error", err)
		}

		if !sleep(ctx, poll) {
			return ctx.Err()
		}
	}
}
