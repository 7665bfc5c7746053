package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loykin/dockhand/internal/metrics"
	"github.com/loykin/dockhand/internal/service"
	"github.com/loykin/dockhand/internal/store"
	"github.com/loykin/dockhand/web"
)

// Router provides the HTTP surface. JSON endpoints live under /api;
// /metrics serves Prometheus; every other path falls back to the
// embedded web UI.

type Router struct {
	st        store.Store
	taskdefs  *service.TaskDefinitionService
	jobs      *service.JobService
	schedules *service.ScheduleService
}

func NewRouter(st store.Store, taskdefs *service.TaskDefinitionService, jobs *service.JobService, schedules *service.ScheduleService) *Router {
	return &Router{st: st, taskdefs: taskdefs, jobs: jobs, schedules: schedules}
}

// Handler returns an http.Handler powered by gin that can be mounted in
// any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())

	g.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := g.Group("/api")
	api.GET("/healthz", r.handleHealthz)
	api.GET("/database-check", r.handleDatabaseCheck)

	api.GET("/task-definitions", r.handleListTaskDefinitions)
	api.POST("/task-definitions", r.handleCreateTaskDefinition)
	api.PATCH("/task-definitions/:id", r.handlePatchTaskDefinition)
	api.DELETE("/task-definitions/:id", r.handleDeleteTaskDefinition)

	api.POST("/jobs/submit", r.handleSubmitJob)
	api.POST("/jobs/stop", r.handleStopJob)
	api.GET("/jobs", r.handleListJobs)
	api.GET("/jobs/:id", r.handleGetJob)
	api.GET("/jobs/:id/logs", r.handleJobLogs)

	api.GET("/schedules", r.handleListSchedules)
	api.POST("/schedules", r.handleCreateSchedule)
	api.PATCH("/schedules/:id", r.handlePatchSchedule)
	api.DELETE("/schedules/:id", r.handleDeleteSchedule)

	g.NoRoute(r.handleFallback)
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
// Call Close or Shutdown on the returned server to stop it.
func NewServer(addr string, r *Router) *http.Server {
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server
}

func (r *Router) handleHealthz(c *gin.Context) {
	writeJSON(c, http.StatusOK, "Hello, World!")
}

func (r *Router) handleDatabaseCheck(c *gin.Context) {
	if err := r.st.Ping(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, "OK")
}

// handleFallback serves the embedded single-page UI for anything outside
// /api; unknown /api paths stay JSON.
func (r *Router) handleFallback(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api") {
		writeJSON(c, http.StatusNotFound, errorResp{ErrorCode: "NOT_FOUND", Message: "no such endpoint"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", web.Index)
}
