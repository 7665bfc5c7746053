package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loykin/dockhand/internal/apperr"
	"github.com/loykin/dockhand/internal/model"
)

func (r *Router) handleSubmitJob(c *gin.Context) {
	var req submitJobReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid JSON: "+err.Error())
		return
	}

	var expireAfter *time.Duration
	if req.LogExpireAfter != nil {
		d := time.Duration(*req.LogExpireAfter) * time.Second
		expireAfter = &d
	}

	id, err := r.jobs.Submit(c.Request.Context(), req.TaskDefinitionID, req.JobName, expireAfter)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"job_id": id})
}

func (r *Router) handleStopJob(c *gin.Context) {
	var req stopJobReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid JSON: "+err.Error())
		return
	}
	if err := r.jobs.Stop(c.Request.Context(), req.JobID); err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

type listJobsResp struct {
	Jobs       []jobDTO `json:"jobs"`
	TotalCount int64    `json:"total_count"`
}

func (r *Router) handleListJobs(c *gin.Context) {
	filter := model.JobFilter{
		ContainsName: c.Query("contains_name"),
	}
	id, ok := queryInt64(c, "job_id", 0)
	if !ok {
		return
	}
	if id > 0 {
		filter.IDs = []int64{id}
	}
	if filter.PageNumber, ok = queryInt(c, "page_number", 1); !ok {
		return
	}
	if filter.PageSize, ok = queryInt(c, "page_size", 20); !ok {
		return
	}
	if status := c.Query("status"); status != "" {
		filter.Statuses = []model.JobStatus{model.JobStatus(status)}
	}

	jobs, total, err := r.jobs.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]jobDTO, len(jobs))
	for i, j := range jobs {
		out[i] = toJobDTO(j)
	}
	writeJSON(c, http.StatusOK, listJobsResp{Jobs: out, TotalCount: total})
}

func (r *Router) handleGetJob(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	jobs, _, err := r.jobs.List(c.Request.Context(), model.JobFilter{IDs: []int64{id}})
	if err != nil {
		writeError(c, err)
		return
	}
	if len(jobs) == 0 {
		writeError(c, apperr.ErrJobNotFound)
		return
	}
	writeJSON(c, http.StatusOK, toJobDTO(jobs[0]))
}

type jobLogsResp struct {
	Logs       []logEntryDTO `json:"logs"`
	TotalCount int64         `json:"total_count"`
}

func (r *Router) handleJobLogs(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	offset, ok := queryInt64(c, "offset", 0)
	if !ok {
		return
	}
	limit, ok := queryInt64(c, "limit", 100)
	if !ok {
		return
	}

	entries, err := r.jobs.Logs(c.Request.Context(), id, offset, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	total, err := r.jobs.CountLogs(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, jobLogsResp{Logs: toLogEntryDTOs(entries), TotalCount: total})
}
