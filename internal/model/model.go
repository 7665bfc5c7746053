package model

import (
	"time"
)

// JobStatus is the lifecycle state of a job.
// Pending -> Starting -> Running -> (Finished | Failed).
// Terminal states never transition again.
type JobStatus string

const (
	JobStatusPending  JobStatus = "Pending"
	JobStatusStarting JobStatus = "Starting"
	JobStatusRunning  JobStatus = "Running"
	JobStatusFinished JobStatus = "Finished"
	JobStatusFailed   JobStatus = "Failed"
)

// Terminal reports whether the status is a final state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusFinished || s == JobStatusFailed
}

// CanTransitionTo checks the lifecycle transition table. Any non-terminal
// state may fail; otherwise only the forward edge is allowed.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	if s == next {
		return true
	}
	if s.Terminal() {
		return false
	}
	if next == JobStatusFailed {
		return true
	}
	switch s {
	case JobStatusPending:
		return next == JobStatusStarting
	case JobStatusStarting:
		return next == JobStatusRunning
	case JobStatusRunning:
		return next == JobStatusFinished
	}
	return false
}

// ContainerType identifies the runtime a job's container was launched with.
type ContainerType string

const ContainerTypeDocker ContainerType = "Docker"

// TaskDefinition is an immutable, versioned template for a container run.
// (name, version) is unique; at most one row per name has IsLatest=true.
type TaskDefinition struct {
	ID            int64
	Name          string
	Version       int
	Description   string
	Image         string
	Command       []string // ordered command tokens, optional
	Args          string   // comma-joined, optional
	Env           string   // comma-joined KEY=VALUE pairs, optional
	MemoryLimitMB *int
	CPUShares     *int
	Enabled       bool
	IsLatest      bool
	CreatedAt     time.Time
}

// Job is one execution attempt of a task definition.
type Job struct {
	ID               int64
	Name             string
	TaskDefinitionID int64
	Status           JobStatus
	SubmitedAt       time.Time
	StartedAt        *time.Time
	FinishedAt       *time.Time
	ContainerType    ContainerType
	ContainerID      *string
	ExitCode         *int
	ErrorMessage     *string
	LogExpireAfter   *time.Duration
	LogExpired       bool
	CreatedAt        time.Time
}

// Schedule is a persisted cron rule that submits jobs on a recurrence.
type Schedule struct {
	ID               int64
	Name             string
	JobName          string
	CronExpression   string
	TaskDefinitionID int64
	Command          *string
	Timezone         *string
	TimezoneOffset   *int // minutes east of UTC, e.g. 540 for Asia/Seoul
	Enabled          bool
	CreatedAt        time.Time
	LastTriggeredAt  *time.Time
}
