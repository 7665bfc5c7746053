package service

import (
	"context"
	"log/slog"

	"github.com/loykin/dockhand/internal/apperr"
	"github.com/loykin/dockhand/internal/cdc"
	"github.com/loykin/dockhand/internal/cron"
	"github.com/loykin/dockhand/internal/model"
	"github.com/loykin/dockhand/internal/store"
)

// ScheduleService validates and persists schedules and announces every
// mutation on the CDC bus so the scheduler loop can refresh its working
// set.
type ScheduleService struct {
	schedules store.ScheduleRepository
	taskdefs  store.TaskDefinitionRepository
	bus       *cdc.Bus
}

func NewScheduleService(schedules store.ScheduleRepository, taskdefs store.TaskDefinitionRepository, bus *cdc.Bus) *ScheduleService {
	return &ScheduleService{schedules: schedules, taskdefs: taskdefs, bus: bus}
}

// Create validates the cron expression and the task definition reference,
// inserts the row, and emits a CDC new event.
func (s *ScheduleService) Create(ctx context.Context, params model.CreateScheduleParams) (int64, error) {
	if _, err := cron.Parse(params.CronExpression); err != nil {
		return 0, apperr.InvalidCronExpression(err)
	}

	tds, err := s.taskdefs.List(ctx, model.TaskDefinitionFilter{IDs: []int64{params.TaskDefinitionID}})
	if err != nil {
		return 0, err
	}
	if len(tds) == 0 {
		return 0, apperr.ErrTaskDefinitionNotFound
	}

	id, err := s.schedules.Create(ctx, params)
	if err != nil {
		return 0, err
	}

	s.publish(ctx, cdc.Event{Op: cdc.OpNew, ScheduleID: id})
	slog.Info("schedule created", "schedule_id", id, "name", params.Name, "cron", params.CronExpression)
	return id, nil
}

// Patch applies a partial update. An invalid cron expression rejects the
// whole patch, leaving the persisted row unchanged.
func (s *ScheduleService) Patch(ctx context.Context, params model.PatchScheduleParams) error {
	if params.CronExpression != nil {
		if _, err := cron.Parse(*params.CronExpression); err != nil {
			return apperr.InvalidCronExpression(err)
		}
	}

	existing, err := s.schedules.List(ctx, model.ScheduleFilter{IDs: []int64{params.ScheduleID}, Limit: 1})
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		return apperr.ErrScheduleNotFound
	}

	if err := s.schedules.Patch(ctx, params); err != nil {
		return err
	}
	s.publish(ctx, cdc.Event{Op: cdc.OpUpdate, ScheduleID: params.ScheduleID})
	return nil
}

// Delete removes the schedule and emits a CDC delete event.
func (s *ScheduleService) Delete(ctx context.Context, scheduleID int64) error {
	if err := s.schedules.Delete(ctx, scheduleID); err != nil {
		return err
	}
	s.publish(ctx, cdc.Event{Op: cdc.OpDelete, ScheduleID: scheduleID})
	return nil
}

// List is a pass-through to the repository.
func (s *ScheduleService) List(ctx context.Context, filter model.ScheduleFilter) ([]model.Schedule, error) {
	return s.schedules.List(ctx, filter)
}

// publish attaches the current row to new/update events so consumers can
// log it; the scheduler only uses events as a reload signal.
func (s *ScheduleService) publish(ctx context.Context, ev cdc.Event) {
	if s.bus == nil {
		return
	}
	if ev.Op != cdc.OpDelete {
		rows, err := s.schedules.List(ctx, model.ScheduleFilter{IDs: []int64{ev.ScheduleID}, Limit: 1})
		if err == nil && len(rows) == 1 {
			ev.Schedule = &rows[0]
		}
	}
	s.bus.Publish(ev)
}
