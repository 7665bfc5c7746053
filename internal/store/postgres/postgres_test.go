package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/loykin/dockhand/internal/apperr"
	"github.com/loykin/dockhand/internal/model"
	"github.com/loykin/dockhand/internal/store"
)

// startPostgresContainer starts a PostgreSQL container for tests and
// returns a DSN suitable for pgx stdlib. It skips the test if Docker is
// unavailable.
func startPostgresContainer(t *testing.T) (dsn string, terminate func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
	)
	if err != nil {
		cancel()
		t.Skipf("Failed to start PostgreSQL container: %v", err)
		return "", nil
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		cancel()
		t.Skipf("Failed to get host info: %v", err)
		return "", nil
	}

	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = container.Terminate(ctx)
		cancel()
		t.Skipf("Failed to get mapped port: %v", err)
		return "", nil
	}

	dsn = fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	terminate = func() {
		_ = container.Terminate(ctx)
		cancel()
	}
	return dsn, terminate
}

func waitForPostgres(t *testing.T, dsn string) {
	t.Helper()
	deadline := time.Now().Add(45 * time.Second)
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		db, err := sql.Open("pgx", dsn)
		if err == nil {
			if err = db.PingContext(ctx); err == nil {
				_ = db.Close()
				cancel()
				return
			}
			_ = db.Close()
		}
		cancel()
		if time.Now().After(deadline) {
			t.Fatalf("postgres not ready in time: %v", err)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func TestPostgresStore(t *testing.T) {
	dsn, terminate := startPostgresContainer(t)
	waitForPostgres(t, dsn)
	defer func() {
		if terminate != nil {
			terminate()
		}
	}()

	db, err := New(store.Config{Type: "postgres", DSN: dsn})
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("second ensure schema: %v", err)
	}

	// Task definition versioning and is_latest flip.
	params := model.CreateTaskDefinitionParams{Name: "report", Image: "busybox", Command: []string{"echo", "hi"}}
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
		t.Fatalf("latest = %+v, want v2 only", latest)
	}

	// Job transition guard.
	jobID, err := db.Jobs().Create(ctx, model.CreateJobParams{
		Name: "run", TaskDefinitionID: id2, Status: model.JobStatusPending, SubmitedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	finished := model.JobStatusFinished
	if err := db.Jobs().Patch(ctx, model.PatchJobParams{JobID: jobID, Status: &finished}); !errors.Is(err, apperr.ErrInvalidJobTransition) {
		t.Fatalf("pending->finished = %v, want ErrInvalidJobTransition", err)
	}
	failed := model.JobStatusFailed
	if err := db.Jobs().Patch(ctx, model.PatchJobParams{JobID: jobID, Status: &failed}); err != nil {
		t.Fatalf("pending->failed: %v", err)
	}

	// Schedule round-trip.
	schedID, err := db.Schedules().Create(ctx, model.CreateScheduleParams{
		Name: "nightly", JobName: "nightly-run", CronExpression: "0 0 * * *",
		TaskDefinitionID: id2, Enabled: true,
	})
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	triggered := time.Now().UTC().Truncate(time.Second)
	if err := db.Schedules().Patch(ctx, model.PatchScheduleParams{ScheduleID: schedID, LastTriggeredAt: &triggered}); err != nil {
		t.Fatalf("patch schedule: %v", err)
	}
	rows, err := db.Schedules().List(ctx, model.ScheduleFilter{IDs: []int64{schedID}})
	if err != nil {
		t.Fatalf("list schedules: %v", err)
	}
	if rows[0].LastTriggeredAt == nil || !rows[0].LastTriggeredAt.Equal(triggered) {
		t.Fatalf("last_triggered_at = %v, want %v", rows[0].LastTriggeredAt, triggered)
	}
}
