// Package client is a typed HTTP client for the dockhand API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client communicates with a dockhand daemon.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Config holds client configuration.
type Config struct {
	BaseURL string // e.g. "http://localhost:13939/api"
	Timeout time.Duration
	Logger  *slog.Logger
}

// DefaultConfig returns default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:13939/api",
		Timeout: 10 * time.Second,
	}
}

// New creates a dockhand API client.
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:13939/api"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Client{
		baseURL: config.BaseURL,
		logger:  config.Logger,
		client:  &http.Client{Timeout: config.Timeout},
	}
}

// APIError is a non-2xx response decoded from the API's error payload.
type APIError struct {
	StatusCode int
	Code       string `json:"error_code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsReachable checks whether the daemon answers its health endpoint.
func (c *Client) IsReachable(ctx context.Context) bool {
	var out string
	err := c.do(ctx, http.MethodGet, "/healthz", nil, &out)
	if err != nil {
		c.logger.Debug("daemon unreachable", "error", err)
		return false
	}
	return true
}

// DatabaseCheck verifies the daemon can reach its database.
func (c *Client) DatabaseCheck(ctx context.Context) error {
	var out string
	return c.do(ctx, http.MethodGet, "/database-check", nil, &out)
}

// CreateTaskDefinition creates a new version and returns its id.
func (c *Client) CreateTaskDefinition(ctx context.Context, req CreateTaskDefinitionRequest) (int64, error) {
	var resp struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/task-definitions", req, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// ListTaskDefinitions lists task definitions matching the query.
func (c *Client) ListTaskDefinitions(ctx context.Context, q ListTaskDefinitionsQuery) (TaskDefinitionList, error) {
	vals := url.Values{}
	if q.TaskDefinitionID > 0 {
		vals.Set("task_definition_id", strconv.FormatInt(q.TaskDefinitionID, 10))
	}
	if q.Name != "" {
		vals.Set("name", q.Name)
	}
	if q.ContainsName != "" {
		vals.Set("contains_name", q.ContainsName)
	}
	if q.LatestOnly {
		vals.Set("is_latest_only", "true")
	}
	if q.PageNumber > 0 {
		vals.Set("page_number", strconv.Itoa(q.PageNumber))
	}
	if q.PageSize > 0 {
		vals.Set("page_size", strconv.Itoa(q.PageSize))
	}
	var resp TaskDefinitionList
	err := c.do(ctx, http.MethodGet, "/task-definitions?"+vals.Encode(), nil, &resp)
	return resp, err
}

// PatchTaskDefinition applies a partial update to a task definition.
func (c *Client) PatchTaskDefinition(ctx context.Context, id int64, req PatchTaskDefinitionRequest) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/task-definitions/%d", id), req, nil)
}

// DeleteTaskDefinition deletes a task definition version.
func (c *Client) DeleteTaskDefinition(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/task-definitions/%d", id), nil, nil)
}

// SubmitJob submits a job and returns its id.
func (c *Client) SubmitJob(ctx context.Context, req SubmitJobRequest) (int64, error) {
	var resp struct {
		JobID int64 `json:"job_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/jobs/submit", req, &resp); err != nil {
		return 0, err
	}
	return resp.JobID, nil
}

// StopJob asks the daemon to stop a job's container.
func (c *Client) StopJob(ctx context.Context, jobID int64) error {
	body := map[string]int64{"job_id": jobID}
	return c.do(ctx, http.MethodPost, "/jobs/stop", body, nil)
}

// ListJobs lists jobs matching the query.
func (c *Client) ListJobs(ctx context.Context, q ListJobsQuery) (JobList, error) {
	vals := url.Values{}
	if q.JobID > 0 {
		vals.Set("job_id", strconv.FormatInt(q.JobID, 10))
	}
	if q.Status != "" {
		vals.Set("status", q.Status)
	}
	if q.ContainsName != "" {
		vals.Set("contains_name", q.ContainsName)
	}
	if q.PageNumber > 0 {
		vals.Set("page_number", strconv.Itoa(q.PageNumber))
	}
	if q.PageSize > 0 {
		vals.Set("page_size", strconv.Itoa(q.PageSize))
	}
	var resp JobList
	err := c.do(ctx, http.MethodGet, "/jobs?"+vals.Encode(), nil, &resp)
	return resp, err
}

// GetJob fetches one job by id.
func (c *Client) GetJob(ctx context.Context, jobID int64) (Job, error) {
	var resp Job
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/jobs/%d", jobID), nil, &resp)
	return resp, err
}

// GetJobLogs pages a job's container log.
func (c *Client) GetJobLogs(ctx context.Context, jobID, offset, limit int64) (JobLogs, error) {
	path := fmt.Sprintf("/jobs/%d/logs?offset=%d&limit=%d", jobID, offset, limit)
	var resp JobLogs
	err := c.do(ctx, http.MethodGet, path, nil, &resp)
	return resp, err
}

// CreateSchedule creates a schedule and returns its id.
func (c *Client) CreateSchedule(ctx context.Context, req CreateScheduleRequest) (int64, error) {
	var resp struct {
		ScheduleID int64 `json:"schedule_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/schedules", req, &resp); err != nil {
		return 0, err
	}
	return resp.ScheduleID, nil
}

// ListSchedules lists schedules matching the query.
func (c *Client) ListSchedules(ctx context.Context, q ListSchedulesQuery) (ScheduleList, error) {
	vals := url.Values{}
	if q.ScheduleID > 0 {
		vals.Set("schedule_id", strconv.FormatInt(q.ScheduleID, 10))
	}
	if q.Name != "" {
		vals.Set("name", q.Name)
	}
	if q.ContainsName != "" {
		vals.Set("contains_name", q.ContainsName)
	}
	if q.Enabled != nil {
		vals.Set("enabled", strconv.FormatBool(*q.Enabled))
	}
	var resp ScheduleList
	err := c.do(ctx, http.MethodGet, "/schedules?"+vals.Encode(), nil, &resp)
	return resp, err
}

// PatchSchedule applies a partial update to a schedule.
func (c *Client) PatchSchedule(ctx context.Context, id int64, req PatchScheduleRequest) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/schedules/%d", id), req, nil)
}

// DeleteSchedule deletes a schedule.
func (c *Client) DeleteSchedule(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/schedules/%d", id), nil, nil)
}

// do performs one request, encoding body as JSON when non-nil and
// decoding the response into out when non-nil. Non-2xx responses become
// *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			apiErr.Code = "INTERNAL"
			apiErr.Message = resp.Status
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
