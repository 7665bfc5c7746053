package service

import (
	"context"
	"log/slog"

	"github.com/loykin/dockhand/internal/model"
	"github.com/loykin/dockhand/internal/store"
)

// TaskDefinitionService is a thin orchestration layer over the
// repository; version assignment and the latest-flag flip happen in the
// repository transaction.
type TaskDefinitionService struct {
	taskdefs store.TaskDefinitionRepository
}

func NewTaskDefinitionService(taskdefs store.TaskDefinitionRepository) *TaskDefinitionService {
	return &TaskDefinitionService{taskdefs: taskdefs}
}

func (s *TaskDefinitionService) Create(ctx context.Context, params model.CreateTaskDefinitionParams) (int64, error) {
	id, err := s.taskdefs.Create(ctx, params)
	if err != nil {
		return 0, err
	}
	slog.Info("task definition created", "task_definition_id", id, "name", params.Name)
	return id, nil
}

func (s *TaskDefinitionService) Patch(ctx context.Context, params model.PatchTaskDefinitionParams) error {
	return s.taskdefs.Patch(ctx, params)
}

func (s *TaskDefinitionService) Delete(ctx context.Context, id int64) error {
	return s.taskdefs.Delete(ctx, id)
}

// List returns task definitions matching the filter plus the unpaged
// total count.
func (s *TaskDefinitionService) List(ctx context.Context, filter model.TaskDefinitionFilter) ([]model.TaskDefinition, int64, error) {
	tds, err := s.taskdefs.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.taskdefs.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return tds, total, nil
}
