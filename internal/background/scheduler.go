package background

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/loykin/dockhand/internal/cdc"
	"github.com/loykin/dockhand/internal/cron"
	"github.com/loykin/dockhand/internal/metrics"
	"github.com/loykin/dockhand/internal/model"
	"github.com/loykin/dockhand/internal/service"
	"github.com/loykin/dockhand/internal/store"
)

// Scheduler keeps an in-memory working set of all schedules with their
// parsed cron expressions and submits a job for every schedule whose
// expression matches the current minute. Any CDC event invalidates the
// whole working set; the set is reloaded at most once per tick, and the
// invalidation stays pending until a reload succeeds.
type Scheduler struct {
	Schedules  store.ScheduleRepository
	Jobs       *service.JobService
	Bus        *cdc.Bus
	Tick       time.Duration
	EmptySleep time.Duration

	// Now is swappable for tests; nil means time.Now.
	Now func() time.Time

	entries []schedulerEntry
	dirty   bool
}

type schedulerEntry struct {
	schedule model.Schedule
	expr     cron.Expression
}

func (s *Scheduler) Name() string { return "scheduler" }

func (s *Scheduler) Run(ctx context.Context) error {
	tick := s.Tick
	if tick <= 0 {
		tick = time.Second
	}
	empty := s.EmptySleep
	if empty <= 0 {
		empty = 5 * time.Second
	}

	if err := s.reload(ctx); err != nil {
		slog.Error("scheduler: initial load failed", "error", err)
		metrics.IncLoopError("scheduler")
		s.dirty = true
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// The bus only signals that something changed; draining it must
		// not lose the invalidation when the reload itself fails, so the
		// dirty flag stays set until a reload goes through.
		if len(s.Bus.Drain()) > 0 {
			s.dirty = true
		}
		if s.dirty {
			if err := s.reload(ctx); err != nil {
				slog.Error("scheduler: reload failed", "error", err)
				metrics.IncLoopError("scheduler")
				if !sleep(ctx, empty) {
					return ctx.Err()
				}
				continue
			}
			s.dirty = false
		}

		if len(s.entries) == 0 {
			if !sleep(ctx, empty) {
				return ctx.Err()
			}
			continue
		}

		now := s.now()
		for i := range s.entries {
			e := &s.entries[i]
			if !isTimeToTrigger(e, now) {
				continue
			}
			s.trigger(ctx, e, now)
		}

		if !sleep(ctx, tick) {
			return ctx.Err()
		}
	}
}

// reload replaces the working set with the full schedule table. Rows
// whose cron expression no longer parses are skipped with a warning so
// one bad row cannot stall the rest.
func (s *Scheduler) reload(ctx context.Context) error {
	rows, err := s.Schedules.List(ctx, model.ScheduleFilter{})
	if err != nil {
		return err
	}
	entries := make([]schedulerEntry, 0, len(rows))
	for _, row := range rows {
		expr, err := cron.Parse(row.CronExpression)
		if err != nil {
			slog.Warn("scheduler: skipping schedule with bad cron expression",
				"schedule_id", row.ID, "cron", row.CronExpression, "error", err)
			continue
		}
		entries = append(entries, schedulerEntry{schedule: row, expr: expr})
	}
	s.entries = entries
	metrics.IncSchedulerReload()
	slog.Info("scheduler: working set loaded", "schedules", len(entries))
	return nil
}

// isTimeToTrigger matches now against the entry's expression in the
// schedule's local time and dedups by truncating to the minute: a
// schedule fires at most once per matched minute.
func isTimeToTrigger(e *schedulerEntry, now time.Time) bool {
	if !e.schedule.Enabled {
		return false
	}
	eval := now.UTC()
	if e.schedule.TimezoneOffset != nil {
		eval = eval.Add(time.Duration(*e.schedule.TimezoneOffset) * time.Minute)
	}
	if !e.expr.Matches(eval) {
		return false
	}
	if last := e.schedule.LastTriggeredAt; last != nil {
		if now.UTC().Truncate(time.Minute).Equal(last.UTC().Truncate(time.Minute)) {
			return false
		}
	}
	return true
}

// trigger submits a job for the entry and records the trigger time both
// in the database and in the cached row. The cached timestamp advances
// even when persistence fails so a transient database error cannot
// cause a duplicate submission within the same minute.
func (s *Scheduler) trigger(ctx context.Context, e *schedulerEntry, now time.Time) {
	jobName := e.schedule.JobName
	if jobName == "" {
		jobName = fmt.Sprintf("%s-%d", e.schedule.Name, now.Unix())
	}

	if _, err := s.Jobs.Submit(ctx, e.schedule.TaskDefinitionID, jobName, nil); err != nil {
		slog.Error("scheduler: submitting scheduled job failed",
			"schedule_id", e.schedule.ID, "error", err)
		metrics.IncLoopError("scheduler")
	} else {
		metrics.IncSchedulerTrigger()
		slog.Info("scheduler: triggered", "schedule_id", e.schedule.ID, "job_name", jobName)
	}

	triggeredAt := now.UTC()
	if err := s.Schedules.Patch(ctx, model.PatchScheduleParams{
		ScheduleID:      e.schedule.ID,
		LastTriggeredAt: &triggeredAt,
	}); err != nil {
		slog.Error("scheduler: recording trigger time failed",
			"schedule_id", e.schedule.ID, "error", err)
	}
	e.schedule.LastTriggeredAt = &triggeredAt
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
