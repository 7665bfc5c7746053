package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/loykin/dockhand/internal/apperr"
	"github.com/loykin/dockhand/internal/model"
)

func TestTaskDefinitionVersioning(t *testing.T) {
	db := New()
	ctx := context.Background()

	params := model.CreateTaskDefinitionParams{Name: "report", Image: "busybox"}
	if _, err := db.TaskDefinitions().Create(ctx, params); err != nil {
		t.Fatalf("create v1: %v", err)
	}
	id2, err := db.TaskDefinitions().Create(ctx, params)
	if err != nil {
		t.Fatalf("create v2: %v", err)
	}

	latest, err := db.TaskDefinitions().List(ctx, model.TaskDefinitionFilter{Name: "report", LatestOnly: true})
	if err != nil {
		t.Fatalf("list latest: %v", err)
	}
	if len(latest) != 1 || latest[0].ID != id2 || latest[0].Version != 2 {
		t.Fatalf("latest = %+v, want only v2", latest)
	}
}

func TestTaskDefinitionPaging(t *testing.T) {
	db := New()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := db.TaskDefinitions().Create(ctx, model.CreateTaskDefinitionParams{Name: "report", Image: "busybox"}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	page, err := db.TaskDefinitions().List(ctx, model.TaskDefinitionFilter{PageNumber: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 || page[0].ID != 3 {
		t.Fatalf("page 2 = %+v, want ids 3,4", page)
	}

	empty, err := db.TaskDefinitions().List(ctx, model.TaskDefinitionFilter{PageNumber: 9, PageSize: 2})
	if err != nil {
		t.Fatalf("list past end: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("past-end page = %+v, want empty", empty)
	}
}

func TestJobTransitionGuard(t *testing.T) {
	db := New()
	ctx := context.Background()

	id, err := db.Jobs().Create(ctx, model.CreateJobParams{
		Name: "run", TaskDefinitionID: 1, SubmitedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	finished := model.JobStatusFinished
	if err := db.Jobs().Patch(ctx, model.PatchJobParams{JobID: id, Status: &finished}); !errors.Is(err, apperr.ErrInvalidJobTransition) {
		t.Fatalf("pending->finished = %v, want ErrInvalidJobTransition", err)
	}

	failed := model.JobStatusFailed
	if err := db.Jobs().Patch(ctx, model.PatchJobParams{JobID: id, Status: &failed}); err != nil {
		t.Fatalf("pending->failed: %v", err)
	}
	pending := model.JobStatusPending
	if err := db.Jobs().Patch(ctx, model.PatchJobParams{JobID: id, Status: &pending}); !errors.Is(err, apperr.ErrInvalidJobTransition) {
		t.Fatalf("failed->pending = %v, want ErrInvalidJobTransition", err)
	}
}

func TestScheduleNotFoundErrors(t *testing.T) {
	db := New()
	ctx := context.Background()

	enabled := true
	if err := db.Schedules().Patch(ctx, model.PatchScheduleParams{ScheduleID: 1, Enabled: &enabled}); !errors.Is(err, apperr.ErrScheduleNotFound) {
		t.Fatalf("patch missing = %v, want ErrScheduleNotFound", err)
	}
	if err := db.Schedules().Delete(ctx, 1); !errors.Is(err, apperr.ErrScheduleNotFound) {
		t.Fatalf("delete missing = %v, want ErrScheduleNotFound", err)
	}
}
