package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loykin/dockhand/internal/model"
)

type listTaskDefinitionsResp struct {
	TaskDefinitions []taskDefinitionDTO `json:"task_definitions"`
	TotalCount      int64               `json:"total_count"`
}

func (r *Router) handleListTaskDefinitions(c *gin.Context) {
	filter := model.TaskDefinitionFilter{
		Name:         c.Query("name"),
		ContainsName: c.Query("contains_name"),
	}
	id, ok := queryInt64(c, "task_definition_id", 0)
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
	latestOnly, ok := queryBool(c, "is_latest_only")
	if !ok {
		return
	}
	if latestOnly != nil {
		filter.LatestOnly = *latestOnly
	}

	tds, total, err := r.taskdefs.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]taskDefinitionDTO, len(tds))
	for i, td := range tds {
		out[i] = toTaskDefinitionDTO(td)
	}
	writeJSON(c, http.StatusOK, listTaskDefinitionsResp{TaskDefinitions: out, TotalCount: total})
}

func (r *Router) handleCreateTaskDefinition(c *gin.Context) {
	var req createTaskDefinitionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid JSON: "+err.Error())
		return
	}

	id, err := r.taskdefs.Create(c.Request.Context(), model.CreateTaskDefinitionParams{
		Name:          req.Name,
		Description:   req.Description,
		Image:         req.Image,
		Command:       req.Command,
		Args:          req.Args,
		Env:           req.Env,
		MemoryLimitMB: req.MemoryLimit,
		CPUShares:     req.CPULimit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"id": id})
}

func (r *Router) handlePatchTaskDefinition(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req patchTaskDefinitionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid JSON: "+err.Error())
		return
	}

	err := r.taskdefs.Patch(c.Request.Context(), model.PatchTaskDefinitionParams{
		ID:            id,
		Description:   req.Description,
		Image:         req.Image,
		Command:       req.Command,
		Args:          req.Args,
		Env:           req.Env,
		MemoryLimitMB: req.MemoryLimit,
		CPUShares:     req.CPULimit,
		Enabled:       req.Enabled,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleDeleteTaskDefinition(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := r.taskdefs.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}
