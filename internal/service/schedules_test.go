package service

import (
	"context"
	"errors"
	"testing"

	"github.com/loykin/dockhand/internal/apperr"
	"github.com/loykin/dockhand/internal/cdc"
	"github.com/loykin/dockhand/internal/model"
	"github.com/loykin/dockhand/internal/store/memory"
)

func newScheduleFixture(t *testing.T) (*memory.DB, *ScheduleService, *cdc.Bus, int64) {
	t.Helper()
	db := memory.New()
	bus := cdc.NewBus(0, nil)
	svc := NewScheduleService(db.Schedules(), db.TaskDefinitions(), bus)
	tdID, err := db.TaskDefinitions().Create(context.Background(), model.CreateTaskDefinitionParams{
		Name: "report", Image: "busybox",
	})
	if err != nil {
		t.Fatalf("create task definition: %v", err)
	}
	return db, svc, bus, tdID
}

func TestCreateScheduleValidatesCron(t *testing.T) {
	_, svc, bus, tdID := newScheduleFixture(t)

	_, err := svc.Create(context.Background(), model.CreateScheduleParams{
		Name: "bad", JobName: "bad", CronExpression: "0/0 * * * *",
		TaskDefinitionID: tdID, Enabled: true,
	})
	if !errors.Is(err, apperr.ErrInvalidCronExpression) {
		t.Fatalf("err = %v, want ErrInvalidCronExpression", err)
	}
	if bus.Len() != 0 {
		t.Fatalf("rejected create must not publish; got %d events", bus.Len())
	}
}

func TestCreateScheduleRequiresTaskDefinition(t *testing.T) {
	_, svc, _, _ := newScheduleFixture(t)

	_, err := svc.Create(context.Background(), model.CreateScheduleParams{
		Name: "orphan", JobName: "orphan", CronExpression: "* * * * *",
		TaskDefinitionID: 42, Enabled: true,
	})
	if !errors.Is(err, apperr.ErrTaskDefinitionNotFound) {
		t.Fatalf("err = %v, want ErrTaskDefinitionNotFound", err)
	}
}

func TestScheduleMutationsPublishCDCEvents(t *testing.T) {
	_, svc, bus, tdID := newScheduleFixture(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, model.CreateScheduleParams{
		Name: "nightly", JobName: "nightly-run", CronExpression: "0 0 * * *",
		TaskDefinitionID: tdID, Enabled: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	enabled := false
	if err := svc.Patch(ctx, model.PatchScheduleParams{ScheduleID: id, Enabled: &enabled}); err != nil {
		t.Fatalf("patch: %v", err)
	}
	if err := svc.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}

	events := bus.Drain()
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	wantOps := []cdc.Op{cdc.OpNew, cdc.OpUpdate, cdc.OpDelete}
	for i, ev := range events {
		if ev.Op != wantOps[i] || ev.ScheduleID != id {
			t.Fatalf("event %d = %+v, want op %s for schedule %d", i, ev, wantOps[i], id)
		}
	}
	if events[0].Schedule == nil || events[0].Schedule.Name != "nightly" {
		t.Fatalf("create event missing schedule row: %+v", events[0])
	}
	if events[2].Schedule != nil {
		t.Fatalf("delete event should not carry a row")
	}
}

func TestPatchScheduleRejectsBadCronBeforeWriting(t *testing.T) {
	db, svc, bus, tdID := newScheduleFixture(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, model.CreateScheduleParams{
		Name: "nightly", JobName: "nightly-run", CronExpression: "0 0 * * *",
		TaskDefinitionID: tdID, Enabled: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	bus.Drain()

	bad := "0 0 * *"
	if err := svc.Patch(ctx, model.PatchScheduleParams{ScheduleID: id, CronExpression: &bad}); !errors.Is(err, apperr.ErrInvalidCronExpression) {
		t.Fatalf("err = %v, want ErrInvalidCronExpression", err)
	}

	rows, _ := db.Schedules().List(ctx, model.ScheduleFilter{IDs: []int64{id}})
	if rows[0].CronExpression != "0 0 * * *" {
		t.Fatalf("cron changed despite rejection: %s", rows[0].CronExpression)
	}
	if bus.Len() != 0 {
		t.Fatalf("rejected patch must not publish")
	}
}

func TestPatchScheduleNotFound(t *testing.T) {
	_, svc, _, _ := newScheduleFixture(t)
	enabled := true
	err := svc.Patch(context.Background(), model.PatchScheduleParams{ScheduleID: 9, Enabled: &enabled})
	if !errors.Is(err, apperr.ErrScheduleNotFound) {
		t.Fatalf("err = %v, want ErrScheduleNotFound", err)
	}
}

func TestDeleteScheduleNotFound(t *testing.T) {
	_, svc, _, _ := newScheduleFixture(t)
	err := svc.Delete(context.Background(), 9)
	if !errors.Is(err, apperr.ErrScheduleNotFound) {
		t.Fatalf("err = %v, want ErrScheduleNotFound", err)
	}
}
