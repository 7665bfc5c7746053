package background

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/loykin/dockhand/internal/container"
	"github.com/loykin/dockhand/internal/model"
	"github.com/loykin/dockhand/internal/service"
	"github.com/loykin/dockhand/internal/store/memory"
)

type fakeRuntime struct {
	runID      string
	runErr     error
	inspect    container.InspectResult
	inspectErr error
	stopped    []string
}

func (f *fakeRuntime) Run(_ context.Context, _ model.TaskDefinition) (string, error) {
	return f.runID, f.runErr
}

func (f *fakeRuntime) Inspect(_ context.Context, _ string) (container.InspectResult, error) {
	return f.inspect, f.inspectErr
}

func (f *fakeRuntime) Stop(_ context.Context, id string, _ time.Duration) error {
	f.stopped = append(f.stopped, id)
	return nil
}

func (f *fakeRuntime) Kill(_ context.Context, _ string) error { return nil }

func (f *fakeRuntime) Remove(_ context.Context, _ string, _ container.RemoveOptions) error {
	return nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within deadline")
}

func submitJob(t *testing.T, db *memory.DB, svc *service.JobService) int64 {
	t.Helper()
	tdID, err := db.TaskDefinitions().Create(context.Background(), model.CreateTaskDefinitionParams{
		Name: "hello", Image: "busybox", Command: []string{"echo", "hi"},
	})
	if err != nil {
		t.Fatalf("create task definition: %v", err)
	}
	jobID, err := svc.Submit(context.Background(), tdID, "hello-run", nil)
	if err != nil {
		t.Fatalf("submit job: %v", err)
	}
	return jobID
}

func getJob(t *testing.T, db *memory.DB, id int64) model.Job {
	t.Helper()
	jobs, err := db.Jobs().List(context.Background(), model.JobFilter{IDs: []int64{id}})
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("job %d not found", id)
	}
	return jobs[0]
}

func TestRunnerLaunchesPendingJob(t *testing.T) {
	db := memory.New()
	rt := &fakeRuntime{runID: "cid-1"}
	svc := service.NewJobService(db.Jobs(), db.TaskDefinitions(), rt, time.Second)
	jobID := submitJob(t, db, svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &Runner{Jobs: db.Jobs(), Service: svc, BatchSize: 5, IdleSleep: 5 * time.Millisecond}
	go func() { _ = r.Run(ctx) }()

	waitFor(t, func() bool { return getJob(t, db, jobID).Status == model.JobStatusRunning })

	job := getJob(t, db, jobID)
	if job.ContainerID == nil || *job.ContainerID != "cid-1" {
		t.Fatalf("container id = %v, want cid-1", job.ContainerID)
	}
	if job.StartedAt == nil {
		t.Fatalf("started at not set")
	}
}

func TestRunnerMarksJobFailedOnLaunchError(t *testing.T) {
	db := memory.New()
	rt := &fakeRuntime{runErr: errors.New("image pull failed")}
	svc := service.NewJobService(db.Jobs(), db.TaskDefinitions(), rt, time.Second)
	jobID := submitJob(t, db, svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &Runner{Jobs: db.Jobs(), Service: svc, BatchSize: 5, IdleSleep: 5 * time.Millisecond}
	go func() { _ = r.Run(ctx) }()

	waitFor(t, func() bool { return getJob(t, db, jobID).Status == model.JobStatusFailed })

	job := getJob(t, db, jobID)
	if job.ErrorMessage == nil || *job.ErrorMessage != "image pull failed" {
		t.Fatalf("error message = %v, want image pull failed", job.ErrorMessage)
	}
}

func TestRunnerStopsOnContextCancel(t *testing.T) {
	db := memory.New()
	svc := service.NewJobService(db.Jobs(), db.TaskDefinitions(), &fakeRuntime{}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{Jobs: db.Jobs(), Service: svc, IdleSleep: 5 * time.Millisecond}

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("runner did not stop after cancel")
	}
}
