package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loykin/dockhand/internal/model"
)

type listSchedulesResp struct {
	Schedules []scheduleDTO `json:"schedules"`
}

func (r *Router) handleListSchedules(c *gin.Context) {
	filter := model.ScheduleFilter{
		Name:         c.Query("name"),
		ContainsName: c.Query("contains_name"),
	}
	id, ok := queryInt64(c, "schedule_id", 0)
	if !ok {
		return
	}
	if id > 0 {
		filter.IDs = []int64{id}
	}
	enabled, ok := queryBool(c, "enabled")
	if !ok {
		return
	}
	filter.Enabled = enabled

	schedules, err := r.schedules.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]scheduleDTO, len(schedules))
	for i, s := range schedules {
		out[i] = toScheduleDTO(s)
	}
	writeJSON(c, http.StatusOK, listSchedulesResp{Schedules: out})
}

func (r *Router) handleCreateSchedule(c *gin.Context) {
	var req createScheduleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid JSON: "+err.Error())
		return
	}

	id, err := r.schedules.Create(c.Request.Context(), model.CreateScheduleParams{
		Name:             req.Name,
		JobName:          req.JobName,
		CronExpression:   req.CronExpression,
		TaskDefinitionID: req.TaskDefinitionID,
		Command:          req.Command,
		Timezone:         req.Timezone,
		TimezoneOffset:   req.TimezoneOffset,
		Enabled:          req.Enabled,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"schedule_id": id})
}

func (r *Router) handlePatchSchedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req patchScheduleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid JSON: "+err.Error())
		return
	}

	err := r.schedules.Patch(c.Request.Context(), model.PatchScheduleParams{
		ScheduleID:       id,
		Name:             req.Name,
		JobName:          req.JobName,
		CronExpression:   req.CronExpression,
		TaskDefinitionID: req.TaskDefinitionID,
		Command:          req.Command,
		Timezone:         req.Timezone,
		TimezoneOffset:   req.TimezoneOffset,
		Enabled:          req.Enabled,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleDeleteSchedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := r.schedules.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}
