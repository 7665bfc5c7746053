package client

import "time"

// TaskDefinition mirrors the API's task definition representation.
type TaskDefinition struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Version     int       `json:"version"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Command     []string  `json:"command,omitempty"`
	Args        string    `json:"args,omitempty"`
	Env         string    `json:"env,omitempty"`
	MemoryLimit *int      `json:"memory_limit,omitempty"`
	CPULimit    *int      `json:"cpu_limit,omitempty"`
	Enabled     bool      `json:"enabled"`
	IsLatest    bool      `json:"is_latest"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateTaskDefinitionRequest creates a new version of a task definition.
type CreateTaskDefinitionRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Image       string   `json:"image"`
	Command     []string `json:"command,omitempty"`
	Args        string   `json:"args,omitempty"`
	Env         string   `json:"env,omitempty"`
	MemoryLimit *int     `json:"memory_limit,omitempty"`
	CPULimit    *int     `json:"cpu_limit,omitempty"`
}

// PatchTaskDefinitionRequest is a partial update; nil fields are untouched.
type PatchTaskDefinitionRequest struct {
	Description *string  `json:"description,omitempty"`
	Image       *string  `json:"image,omitempty"`
	Command     []string `json:"command,omitempty"`
	Args        *string  `json:"args,omitempty"`
	Env         *string  `json:"env,omitempty"`
	MemoryLimit *int     `json:"memory_limit,omitempty"`
	CPULimit    *int     `json:"cpu_limit,omitempty"`
	Enabled     *bool    `json:"enabled,omitempty"`
}

// ListTaskDefinitionsQuery selects task definitions.
type ListTaskDefinitionsQuery struct {
	TaskDefinitionID int64
	Name             string
	ContainsName     string
	LatestOnly       bool
	PageNumber       int
	PageSize         int
}

// TaskDefinitionList is the paged list response.
type TaskDefinitionList struct {
	TaskDefinitions []TaskDefinition `json:"task_definitions"`
	TotalCount      int64            `json:"total_count"`
}

// Job mirrors the API's job representation.
type Job struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	TaskDefinitionID int64      `json:"task_definition_id"`
	Status           string     `json:"status"`
	SubmitedAt       time.Time  `json:"submited_at"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
	ContainerType    string     `json:"container_type"`
	ContainerID      *string    `json:"container_id,omitempty"`
	ExitCode         *int       `json:"exit_code,omitempty"`
	ErrorMessage     *string    `json:"error_message,omitempty"`
	LogExpireAfter   *int64     `json:"log_expire_after,omitempty"`
	LogExpired       bool       `json:"log_expired"`
	CreatedAt        time.Time  `json:"created_at"`
}

// SubmitJobRequest submits a job for a task definition.
type SubmitJobRequest struct {
	TaskDefinitionID int64  `json:"task_definition_id"`
	JobName          string `json:"job_name"`
	LogExpireAfter   *int64 `json:"log_expire_after,omitempty"` // seconds
}

// ListJobsQuery selects jobs.
type ListJobsQuery struct {
	JobID        int64
	Status       string
	ContainsName string
	PageNumber   int
	PageSize     int
}

// JobList is the paged list response.
type JobList struct {
	Jobs       []Job `json:"jobs"`
	TotalCount int64 `json:"total_count"`
}

// LogEntry is one line of a job's container log.
type LogEntry struct {
	Index   int64     `json:"index"`
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// JobLogs is a page of a job's log plus the full line count.
type JobLogs struct {
	Logs       []LogEntry `json:"logs"`
	TotalCount int64      `json:"total_count"`
}

// Schedule mirrors the API's schedule representation.
type Schedule struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	JobName          string     `json:"job_name"`
	CronExpression   string     `json:"cron_expression"`
	TaskDefinitionID int64      `json:"task_definition_id"`
	Command          *string    `json:"command,omitempty"`
	Timezone         *string    `json:"timezone,omitempty"`
	TimezoneOffset   *int       `json:"timezone_offset,omitempty"`
	Enabled          bool       `json:"enabled"`
	CreatedAt        time.Time  `json:"created_at"`
	LastTriggeredAt  *time.Time `json:"last_triggered_at,omitempty"`
}

// CreateScheduleRequest creates a schedule.
type CreateScheduleRequest struct {
	Name             string  `json:"name"`
	JobName          string  `json:"job_name"`
	CronExpression   string  `json:"cron_expression"`
	TaskDefinitionID int64   `json:"task_definition_id"`
	Command          *string `json:"command,omitempty"`
	Timezone         *string `json:"timezone,omitempty"`
	TimezoneOffset   *int    `json:"timezone_offset,omitempty"`
	Enabled          bool    `json:"enabled"`
}

// PatchScheduleRequest is a partial update; nil fields are untouched.
type PatchScheduleRequest struct {
	Name             *string `json:"name,omitempty"`
	JobName          *string `json:"job_name,omitempty"`
	CronExpression   *string `json:"cron_expression,omitempty"`
	TaskDefinitionID *int64  `json:"task_definition_id,omitempty"`
	Command          *string `json:"command,omitempty"`
	Timezone         *string `json:"timezone,omitempty"`
	TimezoneOffset   *int    `json:"timezone_offset,omitempty"`
	Enabled          *bool   `json:"enabled,omitempty"`
}

// ListSchedulesQuery selects schedules.
type ListSchedulesQuery struct {
	ScheduleID   int64
	Name         string
	ContainsName string
	Enabled      *bool
}

// ScheduleList is the list response.
type ScheduleList struct {
	Schedules []Schedule `json:"schedules"`
}
