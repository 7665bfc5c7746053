package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/loykin/dockhand/internal/apperr"
)

type errorResp struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

type okResp struct {
	OK bool `json:"ok"`
}

func writeJSON(c *gin.Context, code int, v any) {
	c.Header("Content-Type", "application/json")
	c.Status(code)
	_ = json.NewEncoder(c.Writer).Encode(v)
}

// writeError maps the error taxonomy onto HTTP status codes. Codes the
// table does not know about surface as 500 INTERNAL.
func writeError(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	writeJSON(c, statusOf(code), errorResp{ErrorCode: code, Message: err.Error()})
}

func writeBadRequest(c *gin.Context, message string) {
	writeJSON(c, http.StatusBadRequest, errorResp{ErrorCode: "BAD_REQUEST", Message: message})
}

func statusOf(code string) int {
	switch code {
	case "TASK_DEFINITION_NOT_FOUND", "JOB_NOT_FOUND", "SCHEDULE_NOT_FOUND", "CONTAINER_NOT_FOUND":
		return http.StatusNotFound
	case "INVALID_CRON_EXPRESSION", "JOB_ALREADY_FINISHED", "JOB_ALREADY_FAILED",
		"JOB_HAS_NO_CONTAINER_ID", "INVALID_JOB_TRANSITION", "BAD_REQUEST":
		return http.StatusBadRequest
	case "JOB_LOG_EXPIRED":
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// pathID parses the {id} path segment.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeBadRequest(c, "invalid id path parameter")
		return 0, false
	}
	return id, true
}

// queryInt64 parses an optional integer query parameter, using def when
// absent; a malformed value reports false after writing a 400.
func queryInt64(c *gin.Context, name string, def int64) (int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeBadRequest(c, "invalid "+name+" query parameter")
		return 0, false
	}
	return v, true
}

func queryInt(c *gin.Context, name string, def int) (int, bool) {
	v, ok := queryInt64(c, name, int64(def))
	return int(v), ok
}

func queryBool(c *gin.Context, name string) (*bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		writeBadRequest(c, "invalid "+name+" query parameter")
		return nil, false
	}
	return &v, true
}
