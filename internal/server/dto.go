package server

import (
	"time"

	"github.com/loykin/dockhand/internal/model"
	"github.com/loykin/dockhand/internal/service"
)

// Wire representations. Field names are part of the API contract;
// durations travel as whole seconds.

type taskDefinitionDTO struct {
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

func toTaskDefinitionDTO(td model.TaskDefinition) taskDefinitionDTO {
	return taskDefinitionDTO{
		ID:          td.ID,
		Name:        td.Name,
		Version:     td.Version,
		Description: td.Description,
		Image:       td.Image,
		Command:     td.Command,
		Args:        td.Args,
		Env:         td.Env,
		MemoryLimit: td.MemoryLimitMB,
		CPULimit:    td.CPUShares,
		Enabled:     td.Enabled,
		IsLatest:    td.IsLatest,
		CreatedAt:   td.CreatedAt,
	}
}

type createTaskDefinitionReq struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Image       string   `json:"image" binding:"required"`
	Command     []string `json:"command"`
	Args        string   `json:"args"`
	Env         string   `json:"env"`
	MemoryLimit *int     `json:"memory_limit"`
	CPULimit    *int     `json:"cpu_limit"`
}

type patchTaskDefinitionReq struct {
	Description *string  `json:"description"`
	Image       *string  `json:"image"`
	Command     []string `json:"command"`
	Args        *string  `json:"args"`
	Env         *string  `json:"env"`
	MemoryLimit *int     `json:"memory_limit"`
	CPULimit    *int     `json:"cpu_limit"`
	Enabled     *bool    `json:"enabled"`
}

type jobDTO struct {
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

func toJobDTO(j model.Job) jobDTO {
	dto := jobDTO{
		ID:               j.ID,
		Name:             j.Name,
		TaskDefinitionID: j.TaskDefinitionID,
		Status:           string(j.Status),
		SubmitedAt:       j.SubmitedAt,
		StartedAt:        j.StartedAt,
		FinishedAt:       j.FinishedAt,
		ContainerType:    string(j.ContainerType),
		ContainerID:      j.ContainerID,
		ExitCode:         j.ExitCode,
		ErrorMessage:     j.ErrorMessage,
		LogExpired:       j.LogExpired,
		CreatedAt:        j.CreatedAt,
	}
	if j.LogExpireAfter != nil {
		secs := int64(j.LogExpireAfter.Seconds())
		dto.LogExpireAfter = &secs
	}
	return dto
}

type submitJobReq struct {
	TaskDefinitionID int64  `json:"task_definition_id" binding:"required"`
	JobName          string `json:"job_name" binding:"required"`
	LogExpireAfter   *int64 `json:"log_expire_after"` // seconds
}

type stopJobReq struct {
	JobID int64 `json:"job_id" binding:"required"`
}

type scheduleDTO struct {
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

func toScheduleDTO(s model.Schedule) scheduleDTO {
	return scheduleDTO{
		ID:               s.ID,
		Name:             s.Name,
		JobName:          s.JobName,
		CronExpression:   s.CronExpression,
		TaskDefinitionID: s.TaskDefinitionID,
		Command:          s.Command,
		Timezone:         s.Timezone,
		TimezoneOffset:   s.TimezoneOffset,
		Enabled:          s.Enabled,
		CreatedAt:        s.CreatedAt,
		LastTriggeredAt:  s.LastTriggeredAt,
	}
}

type createScheduleReq struct {
	Name             string  `json:"name" binding:"required"`
	JobName          string  `json:"job_name" binding:"required"`
	CronExpression   string  `json:"cron_expression" binding:"required"`
	TaskDefinitionID int64   `json:"task_definition_id" binding:"required"`
	Command          *string `json:"command"`
	Timezone         *string `json:"timezone"`
	TimezoneOffset   *int    `json:"timezone_offset"`
	Enabled          bool    `json:"enabled"`
}

type patchScheduleReq struct {
	Name             *string `json:"name"`
	JobName          *string `json:"job_name"`
	CronExpression   *string `json:"cron_expression"`
	TaskDefinitionID *int64  `json:"task_definition_id"`
	Command          *string `json:"command"`
	Timezone         *string `json:"timezone"`
	TimezoneOffset   *int    `json:"timezone_offset"`
	Enabled          *bool   `json:"enabled"`
}

type logEntryDTO struct {
	Index   int64     `json:"index"`
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

func toLogEntryDTOs(entries []service.LogEntry) []logEntryDTO {
	out := make([]logEntryDTO, len(entries))
	for i, e := range entries {
		out[i] = logEntryDTO{Index: e.Index, Time: e.Time, Message: e.Message}
	}
	return out
}
