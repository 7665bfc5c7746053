package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loykin/dockhand/internal/cdc"
	"github.com/loykin/dockhand/internal/container"
	"github.com/loykin/dockhand/internal/model"
	"github.com/loykin/dockhand/internal/server"
	"github.com/loykin/dockhand/internal/service"
	"github.com/loykin/dockhand/internal/store/memory"
)

type noopRuntime struct{}

func (noopRuntime) Run(_ context.Context, _ model.TaskDefinition) (string, error) {
	return "cid-1", nil
}

func (noopRuntime) Inspect(_ context.Context, _ string) (container.InspectResult, error) {
	return container.InspectResult{}, nil
}

func (noopRuntime) Stop(_ context.Context, _ string, _ time.Duration) error { return nil }
func (noopRuntime) Kill(_ context.Context, _ string) error                  { return nil }
func (noopRuntime) Remove(_ context.Context, _ string, _ container.RemoveOptions) error {
	return nil
}

func setupServer(t *testing.T) *Client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := memory.New()
	bus := cdc.NewBus(0, nil)
	taskdefs := service.NewTaskDefinitionService(db.TaskDefinitions())
	jobs := service.NewJobService(db.Jobs(), db.TaskDefinitions(), noopRuntime{}, time.Second)
	schedules := service.NewScheduleService(db.Schedules(), db.TaskDefinitions(), bus)
	router := server.NewRouter(db, taskdefs, jobs, schedules)

	srv := httptest.NewServer(router.Handler())
	t.Cleanup(srv.Close)

	return New(Config{BaseURL: srv.URL + "/api"})
}

func TestClientRoundTrip(t *testing.T) {
	c := setupServer(t)
	ctx := context.Background()

	if !c.IsReachable(ctx) {
		t.Fatalf("daemon not reachable")
	}
	if err := c.DatabaseCheck(ctx); err != nil {
		t.Fatalf("database check: %v", err)
	}

	tdID, err := c.CreateTaskDefinition(ctx, CreateTaskDefinitionRequest{
		Name: "report", Image: "busybox", Command: []string{"echo", "hi"},
	})
	if err != nil {
		t.Fatalf("create task definition: %v", err)
	}

	jobID, err := c.SubmitJob(ctx, SubmitJobRequest{TaskDefinitionID: tdID, JobName: "report-run"})
	if err != nil {
		t.Fatalf("submit job: %v", err)
	}

	job, err := c.GetJob(ctx, jobID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job.Status != "Pending" || job.Name != "report-run" {
		t.Fatalf("unexpected job %+v", job)
	}

	list, err := c.ListJobs(ctx, ListJobsQuery{Status: "Pending"})
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if list.TotalCount != 1 {
		t.Fatalf("total_count = %d, want 1", list.TotalCount)
	}

	schedID, err := c.CreateSchedule(ctx, CreateScheduleRequest{
		Name: "nightly", JobName: "nightly-run", CronExpression: "0 0 * * *",
		TaskDefinitionID: tdID, Enabled: true,
	})
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}

	enabled := false
	if err := c.PatchSchedule(ctx, schedID, PatchScheduleRequest{Enabled: &enabled}); err != nil {
		t.Fatalf("patch schedule: %v", err)
	}

	schedules, err := c.ListSchedules(ctx, ListSchedulesQuery{Enabled: &enabled})
	if err != nil {
		t.Fatalf("list schedules: %v", err)
	}
	if len(schedules.Schedules) != 1 {
		t.Fatalf("schedules = %d, want 1", len(schedules.Schedules))
	}

	if err := c.DeleteSchedule(ctx, schedID); err != nil {
		t.Fatalf("delete schedule: %v", err)
	}
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	c := setupServer(t)
	ctx := context.Background()

	_, err := c.SubmitJob(ctx, SubmitJobRequest{TaskDefinitionID: 42, JobName: "nope"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != 404 || apiErr.Code != "TASK_DEFINITION_NOT_FOUND" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}

	_, err = c.CreateSchedule(ctx, CreateScheduleRequest{
		Name: "bad", JobName: "bad", CronExpression: "nope", TaskDefinitionID: 1, Enabled: true,
	})
	if !errors.As(err, &apiErr) || apiErr.Code != "INVALID_CRON_EXPRESSION" {
		t.Fatalf("unexpected error %v", err)
	}
}
