package store

import (
	"context"

	"github.com/loykin/dockhand/internal/model"
)

// The three repository contracts the core depends on. Concrete backends
// (sqlite, postgres, memory) live in subpackages and are picked by the
// factory. All timestamps are stored in UTC.

// TaskDefinitionRepository persists immutable, versioned task templates.
type TaskDefinitionRepository interface {
	// Create inserts a new row. The version is assigned as max(version)+1
	// for the name, and the predecessor's is_latest flag is flipped to
	// false in the same transaction.
	Create(ctx context.Context, params model.CreateTaskDefinitionParams) (int64, error)
	Patch(ctx context.Context, params model.PatchTaskDefinitionParams) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter model.TaskDefinitionFilter) ([]model.TaskDefinition, error)
	Count(ctx context.Context, filter model.TaskDefinitionFilter) (int64, error)
}

// JobRepository persists job execution attempts.
type JobRepository interface {
	Create(ctx context.Context, params model.CreateJobParams) (int64, error)
	// Patch applies a partial update. Status writes that violate the
	// lifecycle transition table are rejected with
	// apperr.ErrInvalidJobTransition; updates per job id are serialized.
	Patch(ctx context.Context, params model.PatchJobParams) error
	List(ctx context.Context, filter model.JobFilter) ([]model.Job, error)
	Count(ctx context.Context, filter model.JobFilter) (int64, error)
}

// ScheduleRepository persists recurring job rules.
type ScheduleRepository interface {
	Create(ctx context.Context, params model.CreateScheduleParams) (int64, error)
	Patch(ctx context.Context, params model.PatchScheduleParams) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter model.ScheduleFilter) ([]model.Schedule, error)
}

// Store bundles the repositories of one backend.
type Store interface {
	TaskDefinitions() TaskDefinitionRepository
	Jobs() JobRepository
	Schedules() ScheduleRepository

	EnsureSchema(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
