package model

import "time"

// TaskDefinitionFilter selects task definitions for list/count queries.
// Zero values mean "no constraint". Page numbers are 1-based.
type TaskDefinitionFilter struct {
	IDs          []int64
	Name         string
	ContainsName string
	LatestOnly   bool
	PageNumber   int
	PageSize     int
}

// CreateTaskDefinitionParams carries the insert payload. Version and
// IsLatest are assigned by the repository so the latest-flag flip stays
// atomic with the insert.
type CreateTaskDefinitionParams struct {
	Name          string
	Description   string
	Image         string
	Command       []string
	Args          string
	Env           string
	MemoryLimitMB *int
	CPUShares     *int
}

// PatchTaskDefinitionParams is a partial update; nil fields are untouched.
type PatchTaskDefinitionParams struct {
	ID            int64
	Description   *string
	Image         *string
	Command       []string
	Args          *string
	Env           *string
	MemoryLimitMB *int
	CPUShares     *int
	Enabled       *bool
}

// JobFilter selects jobs for list/count queries.
type JobFilter struct {
	IDs          []int64
	Statuses     []JobStatus
	ContainsName string
	PageNumber   int
	PageSize     int
	Limit        int // hard cap independent of paging; 0 means none
}

// CreateJobParams carries the insert payload for a new job.
type CreateJobParams struct {
	Name             string
	TaskDefinitionID int64
	Status           JobStatus
	SubmitedAt       time.Time
	LogExpireAfter   *time.Duration
}

// PatchJobParams is a partial update; nil fields are untouched. The
// repository rejects status writes that violate the transition table.
type PatchJobParams struct {
	JobID        int64
	Status       *JobStatus
	StartedAt    *time.Time
	FinishedAt   *time.Time
	ContainerID  *string
	ExitCode     *int
	ErrorMessage *string
	LogExpired   *bool
}

// ScheduleFilter selects schedules for list queries.
type ScheduleFilter struct {
	IDs          []int64
	Name         string
	ContainsName string
	Enabled      *bool
	Limit        int
}

// CreateScheduleParams carries the insert payload for a new schedule.
type CreateScheduleParams struct {
	Name             string
	JobName          string
	CronExpression   string
	TaskDefinitionID int64
	Command          *string
	Timezone         *string
	TimezoneOffset   *int
	Enabled          bool
}

// PatchScheduleParams is a partial update; nil fields are untouched.
type PatchScheduleParams struct {
	ScheduleID       int64
	Name             *string
	JobName          *string
	CronExpression   *string
	TaskDefinitionID *int64
	Command          *string
	Timezone         *string
	TimezoneOffset   *int
	Enabled          *bool
	LastTriggeredAt  *time.Time
}
