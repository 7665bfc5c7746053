package service

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/loykin/dockhand/internal/apperr"
	"github.com/loykin/dockhand/internal/container"
	"github.com/loykin/dockhand/internal/metrics"
	"github.com/loykin/dockhand/internal/model"
	"github.com/loykin/dockhand/internal/store"
)

// JobService orchestrates job state transitions and the log read path.
// The runner and tracker loops drive RunPending/TrackRunning; the HTTP
// surface drives the rest.
type JobService struct {
	jobs        store.JobRepository
	taskdefs    store.TaskDefinitionRepository
	runtime     container.Runtime
	stopTimeout time.Duration
}

func NewJobService(jobs store.JobRepository, taskdefs store.TaskDefinitionRepository, runtime container.Runtime, stopTimeout time.Duration) *JobService {
	if stopTimeout <= 0 {
		stopTimeout = 3 * time.Second
	}
	return &JobService{jobs: jobs, taskdefs: taskdefs, runtime: runtime, stopTimeout: stopTimeout}
}

// Submit persists a new Pending job for an existing task definition.
func (s *JobService) Submit(ctx context.Context, taskDefinitionID int64, jobName string, logExpireAfter *time.Duration) (int64, error) {
	tds, err := s.taskdefs.List(ctx, model.TaskDefinitionFilter{IDs: []int64{taskDefinitionID}})
	if err != nil {
		return 0, err
	}
	if len(tds) == 0 {
		return 0, apperr.ErrTaskDefinitionNotFound
	}

	id, err := s.jobs.Create(ctx, model.CreateJobParams{
		Name:             jobName,
		TaskDefinitionID: taskDefinitionID,
		Status:           model.JobStatusPending,
		SubmitedAt:       time.Now().UTC(),
		LogExpireAfter:   logExpireAfter,
	})
	if err != nil {
		return 0, err
	}
	metrics.IncJobsSubmitted()
	return id, nil
}

// Stop asks the runtime to stop a non-terminal job's container. Status
// reconciliation is left to the tracker loop.
func (s *JobService) Stop(ctx context.Context, jobID int64) error {
	job, err := s.get(ctx, jobID)
	if err != nil {
		return err
	}
	switch job.Status {
	case model.JobStatusFinished:
		return apperr.ErrJobAlreadyFinished
	case model.JobStatusFailed:
		return apperr.ErrJobAlreadyFailed
	}
	if job.ContainerID == nil {
		return apperr.ErrJobHasNoContainerID
	}
	return s.runtime.Stop(ctx, *job.ContainerID, s.stopTimeout)
}

// RunPending launches a Pending job. Invoked only by the runner loop;
// on error the caller marks the job Failed.
func (s *JobService) RunPending(ctx context.Context, job model.Job) error {
	now := time.Now().UTC()
	starting := model.JobStatusStarting
	if err := s.jobs.Patch(ctx, model.PatchJobParams{
		JobID:     job.ID,
		Status:    &starting,
		StartedAt: &now,
	}); err != nil {
		return err
	}
	metrics.IncJobTransition(string(starting))

	tds, err := s.taskdefs.List(ctx, model.TaskDefinitionFilter{IDs: []int64{job.TaskDefinitionID}})
	if err != nil {
		return err
	}
	if len(tds) == 0 {
		return apperr.ErrTaskDefinitionNotFound
	}

	containerID, err := s.runtime.Run(ctx, tds[0])
	if err != nil {
		return err
	}

	running := model.JobStatusRunning
	if err := s.jobs.Patch(ctx, model.PatchJobParams{
		JobID:       job.ID,
		Status:      &running,
		ContainerID: &containerID,
	}); err != nil {
		return err
	}
	metrics.IncJobTransition(string(running))
	slog.Info("job launched", "job_id", job.ID, "container_id", containerID)
	return nil
}

// TrackRunning reconciles one Running job with the container state.
// Precedence: still running is a no-op; a dead container fails the job;
// a finished-at timestamp completes it; anything else is a transition in
// flight and left alone.
func (s *JobService) TrackRunning(ctx context.Context, job model.Job) error {
	if job.ContainerID == nil {
		return apperr.ErrContainerIDNotFound
	}
	res, err := s.runtime.Inspect(ctx, *job.ContainerID)
	if err != nil {
		return err
	}
	st := res.State

	if st.Running {
		return nil
	}
	if st.Dead {
		failed := model.JobStatusFailed
		msg := fmt.Sprintf("Container is dead: %s", st.Error)
		if err := s.jobs.Patch(ctx, model.PatchJobParams{
			JobID:        job.ID,
			Status:       &failed,
			ErrorMessage: &msg,
		}); err != nil {
			return err
		}
		metrics.IncJobTransition(string(failed))
		return nil
	}
	if st.FinishedAt != nil {
		finished := model.JobStatusFinished
		exitCode := st.ExitCode
		if err := s.jobs.Patch(ctx, model.PatchJobParams{
			JobID:      job.ID,
			Status:     &finished,
			FinishedAt: st.FinishedAt,
			ExitCode:   &exitCode,
		}); err != nil {
			return err
		}
		metrics.IncJobTransition(string(finished))
		slog.Info("job finished", "job_id", job.ID, "exit_code", exitCode)
	}
	return nil
}

// MarkFailed records a terminal failure with the error's message. Used
// by the loops' error paths.
func (s *JobService) MarkFailed(ctx context.Context, jobID int64, cause error) error {
	failed := model.JobStatusFailed
	msg := cause.Error()
	if err := s.jobs.Patch(ctx, model.PatchJobParams{
		JobID:        jobID,
		Status:       &failed,
		ErrorMessage: &msg,
	}); err != nil {
		return err
	}
	metrics.IncJobTransition(string(failed))
	return nil
}

// SweepExpiredLogs flips log_expired on terminal jobs whose retention
// window has passed.
func (s *JobService) SweepExpiredLogs(ctx context.Context, now time.Time) error {
	jobs, err := s.jobs.List(ctx, model.JobFilter{
		Statuses: []model.JobStatus{model.JobStatusFinished, model.JobStatusFailed},
	})
	if err != nil {
		return err
	}
	for _, job := range jobs {
		if job.LogExpired || job.LogExpireAfter == nil || job.FinishedAt == nil {
			continue
		}
		if now.Before(job.FinishedAt.Add(*job.LogExpireAfter)) {
			continue
		}
		expired := true
		if err := s.jobs.Patch(ctx, model.PatchJobParams{JobID: job.ID, LogExpired: &expired}); err != nil {
			slog.Error("failed to expire job logs", "job_id", job.ID, "error", err)
		}
	}
	return nil
}

// List returns jobs matching the filter plus the unpaged total count.
func (s *JobService) List(ctx context.Context, filter model.JobFilter) ([]model.Job, int64, error) {
	jobs, err := s.jobs.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.jobs.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// LogEntry is one line of a container's json-file log.
type LogEntry struct {
	Index   int64     `json:"index"`
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// Logs pages the runtime-emitted log file, returning lines
// [offset, offset+limit). Offsets past the end yield an empty slice;
// negative offsets and limits are treated as zero.
func (s *JobService) Logs(ctx context.Context, jobID, offset, limit int64) ([]LogEntry, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	path, err := s.logPath(ctx, jobID)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, apperr.IO(err)
	}
	defer func() { _ = f.Close() }()

	out := make([]LogEntry, 0, limit)
	var idx int64
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if idx >= offset && int64(len(out)) < limit {
			entry, err := parseLogLine(idx, scanner.Bytes())
			if err != nil {
				return nil, err
			}
			out = append(out, entry)
		}
		idx++
		if int64(len(out)) >= limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, apperr.IO(err)
	}
	return out, nil
}

// CountLogs returns the total line count of the job's log file.
func (s *JobService) CountLogs(ctx context.Context, jobID int64) (int64, error) {
	path, err := s.logPath(ctx, jobID)
	if err != nil {
		return 0, err
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, apperr.IO(err)
	}
	defer func() { _ = f.Close() }()

	var n int64
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		n++
	}
	if err := scanner.Err(); err != nil {
		return 0, apperr.IO(err)
	}
	return n, nil
}

func (s *JobService) logPath(ctx context.Context, jobID int64) (string, error) {
	job, err := s.get(ctx, jobID)
	if err != nil {
		return "", err
	}
	if job.LogExpired {
		return "", apperr.ErrJobLogExpired
	}
	if job.ContainerID == nil {
		return "", apperr.ErrJobHasNoContainerID
	}
	res, err := s.runtime.Inspect(ctx, *job.ContainerID)
	if err != nil {
		return "", err
	}
	return res.LogPath, nil
}

func (s *JobService) get(ctx context.Context, jobID int64) (model.Job, error) {
	jobs, err := s.jobs.List(ctx, model.JobFilter{IDs: []int64{jobID}})
	if err != nil {
		return model.Job{}, err
	}
	if len(jobs) == 0 {
		return model.Job{}, apperr.ErrJobNotFound
	}
	return jobs[0], nil
}

// jsonFileLine is docker's json-file log record.
type jsonFileLine struct {
	Log  string    `json:"log"`
	Time time.Time `json:"time"`
}

func parseLogLine(idx int64, raw []byte) (LogEntry, error) {
	var line jsonFileLine
	if err := json.Unmarshal(raw, &line); err != nil {
		return LogEntry{}, apperr.Serialization(err)
	}
	return LogEntry{Index: idx, Time: line.Time, Message: line.Log}, nil
}
