package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/loykin/dockhand/internal/apperr"
	"github.com/loykin/dockhand/internal/model"
	"github.com/loykin/dockhand/internal/store"
)

// DB is an in-memory store.Store. It backs the "memory" store type and
// the package test suites; semantics mirror the SQL backends, including
// the job transition guard and the is_latest flip.
type DB struct {
	mu sync.Mutex

	taskdefs  map[int64]model.TaskDefinition
	jobs      map[int64]model.Job
	schedules map[int64]model.Schedule

	nextTaskDefID int64
	nextJobID     int64
	nextSchedID   int64
}

func New() *DB {
	return &DB{
		taskdefs:  make(map[int64]model.TaskDefinition),
		jobs:      make(map[int64]model.Job),
		schedules: make(map[int64]model.Schedule),
	}
}

func (m *DB) TaskDefinitions() store.TaskDefinitionRepository { return (*taskDefRepo)(m) }
func (m *DB) Jobs() store.JobRepository                       { return (*jobRepo)(m) }
func (m *DB) Schedules() store.ScheduleRepository             { return (*scheduleRepo)(m) }

func (m *DB) EnsureSchema(_ context.Context) error { return nil }
func (m *DB) Ping(_ context.Context) error         { return nil }
func (m *DB) Close() error                         { return nil }

// --- task definitions ---

type taskDefRepo DB

func (r *taskDefRepo) Create(_ context.Context, params model.CreateTaskDefinitionParams) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	version := 0
	for id, td := range r.taskdefs {
		if td.Name == params.Name {
			if td.Version > version {
				version = td.Version
			}
			if td.IsLatest {
				td.IsLatest = false
				r.taskdefs[id] = td
			}
		}
	}

	r.nextTaskDefID++
	td := model.TaskDefinition{
		ID:            r.nextTaskDefID,
		Name:          params.Name,
		Version:       version + 1,
		Description:   params.Description,
		Image:         params.Image,
		Command:       append([]string(nil), params.Command...),
		Args:          params.Args,
		Env:           params.Env,
		MemoryLimitMB: params.MemoryLimitMB,
		CPUShares:     params.CPUShares,
		Enabled:       true,
		IsLatest:      true,
		CreatedAt:     time.Now().UTC(),
	}
	r.taskdefs[td.ID] = td
	return td.ID, nil
}

func (r *taskDefRepo) Patch(_ context.Context, params model.PatchTaskDefinitionParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	td, ok := r.taskdefs[params.ID]
	if !ok {
		return apperr.ErrTaskDefinitionNotFound
	}
	if params.Description != nil {
		td.Description = *params.Description
	}
	if params.Image != nil {
		td.Image = *params.Image
	}
	if params.Command != nil {
		td.Command = append([]string(nil), params.Command...)
	}
	if params.Args != nil {
		td.Args = *params.Args
	}
	if params.Env != nil {
		td.Env = *params.Env
	}
	if params.MemoryLimitMB != nil {
		v := *params.MemoryLimitMB
		td.MemoryLimitMB = &v
	}
	if params.CPUShares != nil {
		v := *params.CPUShares
		td.CPUShares = &v
	}
	if params.Enabled != nil {
		td.Enabled = *params.Enabled
	}
	r.taskdefs[params.ID] = td
	return nil
}

func (r *taskDefRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.taskdefs, id)
	return nil
}

func (r *taskDefRepo) List(_ context.Context, filter model.TaskDefinitionFilter) ([]model.TaskDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.filtered(filter)
	if filter.PageSize > 0 {
		page := filter.PageNumber
		if page <= 0 {
			page = 1
		}
		start := (page - 1) * filter.PageSize
		if start >= len(out) {
			return []model.TaskDefinition{}, nil
		}
		end := start + filter.PageSize
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, nil
}

func (r *taskDefRepo) Count(_ context.Context, filter model.TaskDefinitionFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.filtered(filter))), nil
}

func (r *taskDefRepo) filtered(filter model.TaskDefinitionFilter) []model.TaskDefinition {
	out := make([]model.TaskDefinition, 0, len(r.taskdefs))
	for _, td := range r.taskdefs {
		if len(filter.IDs) > 0 && !containsID(filter.IDs, td.ID) {
			continue
		}
		if filter.Name != "" && td.Name != filter.Name {
			continue
		}
		if filter.ContainsName != "" && !strings.Contains(td.Name, filter.ContainsName) {
			continue
		}
		if filter.LatestOnly && !td.IsLatest {
			continue
		}
		out = append(out, td)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// --- jobs ---

type jobRepo DB

func (r *jobRepo) Create(_ context.Context, params model.CreateJobParams) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := params.Status
	if status == "" {
		status = model.JobStatusPending
	}
	r.nextJobID++
	j := model.Job{
		ID:               r.nextJobID,
		Name:             params.Name,
		TaskDefinitionID: params.TaskDefinitionID,
		Status:           status,
		SubmitedAt:       params.SubmitedAt.UTC(),
		ContainerType:    model.ContainerTypeDocker,
		LogExpireAfter:   params.LogExpireAfter,
		CreatedAt:        time.Now().UTC(),
	}
	r.jobs[j.ID] = j
	return j.ID, nil
}

func (r *jobRepo) Patch(_ context.Context, params model.PatchJobParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[params.JobID]
	if !ok {
		return apperr.ErrJobNotFound
	}
	if params.Status != nil {
		if !j.Status.CanTransitionTo(*params.Status) {
			return apperr.ErrInvalidJobTransition
		}
		j.Status = *params.Status
	}
	if params.StartedAt != nil {
		t := params.StartedAt.UTC()
		j.StartedAt = &t
	}
	if params.FinishedAt != nil {
		t := params.FinishedAt.UTC()
		j.FinishedAt = &t
	}
	if params.ContainerID != nil {
		v := *params.ContainerID
		j.ContainerID = &v
	}
	if params.ExitCode != nil {
		v := *params.ExitCode
		j.ExitCode = &v
	}
	if params.ErrorMessage != nil {
		v := *params.ErrorMessage
		j.ErrorMessage = &v
	}
	if params.LogExpired != nil {
		j.LogExpired = *params.LogExpired
	}
	r.jobs[params.JobID] = j
	return nil
}

func (r *jobRepo) List(_ context.Context, filter model.JobFilter) ([]model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.filtered(filter)
	if filter.PageSize > 0 {
		page := filter.PageNumber
		if page <= 0 {
			page = 1
		}
		start := (page - 1) * filter.PageSize
		if start >= len(out) {
			return []model.Job{}, nil
		}
		end := start + filter.PageSize
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	} else if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *jobRepo) Count(_ context.Context, filter model.JobFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.filtered(filter))), nil
}

func (r *jobRepo) filtered(filter model.JobFilter) []model.Job {
	out := make([]model.Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		if len(filter.IDs) > 0 && !containsID(filter.IDs, j.ID) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, j.Status) {
			continue
		}
		if filter.ContainsName != "" && !strings.Contains(j.Name, filter.ContainsName) {
			continue
		}
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// --- schedules ---

type scheduleRepo DB

func (r *scheduleRepo) Create(_ context.Context, params model.CreateScheduleParams) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextSchedID++
	s := model.Schedule{
		ID:               r.nextSchedID,
		Name:             params.Name,
		JobName:          params.JobName,
		CronExpression:   params.CronExpression,
		TaskDefinitionID: params.TaskDefinitionID,
		Command:          params.Command,
		Timezone:         params.Timezone,
		TimezoneOffset:   params.TimezoneOffset,
		Enabled:          params.Enabled,
		CreatedAt:        time.Now().UTC(),
	}
	r.schedules[s.ID] = s
	return s.ID, nil
}

func (r *scheduleRepo) Patch(_ context.Context, params model.PatchScheduleParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.schedules[params.ScheduleID]
	if !ok {
		return apperr.ErrScheduleNotFound
	}
	if params.Name != nil {
		s.Name = *params.Name
	}
	if params.JobName != nil {
		s.JobName = *params.JobName
	}
	if params.CronExpression != nil {
		s.CronExpression = *params.CronExpression
	}
	if params.TaskDefinitionID != nil {
		s.TaskDefinitionID = *params.TaskDefinitionID
	}
	if params.Command != nil {
		v := *params.Command
		s.Command = &v
	}
	if params.Timezone != nil {
		v := *params.Timezone
		s.Timezone = &v
	}
	if params.TimezoneOffset != nil {
		v := *params.TimezoneOffset
		s.TimezoneOffset = &v
	}
	if params.Enabled != nil {
		s.Enabled = *params.Enabled
	}
	if params.LastTriggeredAt != nil {
		t := params.LastTriggeredAt.UTC()
		s.LastTriggeredAt = &t
	}
	r.schedules[params.ScheduleID] = s
	return nil
}

func (r *scheduleRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schedules[id]; !ok {
		return apperr.ErrScheduleNotFound
	}
	delete(r.schedules, id)
	return nil
}

func (r *scheduleRepo) List(_ context.Context, filter model.ScheduleFilter) ([]model.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Schedule, 0, len(r.schedules))
	for _, s := range r.schedules {
		if len(filter.IDs) > 0 && !containsID(filter.IDs, s.ID) {
			continue
		}
		if filter.Name != "" && s.Name != filter.Name {
			continue
		}
		if filter.ContainsName != "" && !strings.Contains(s.Name, filter.ContainsName) {
			continue
		}
		if filter.Enabled != nil && s.Enabled != *filter.Enabled {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func containsStatus(statuses []model.JobStatus, s model.JobStatus) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}
