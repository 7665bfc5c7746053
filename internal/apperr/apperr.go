package apperr

import (
	"errors"
	"fmt"
)

// Error is a domain error with a stable machine-readable code.
// Codes are part of the HTTP API contract and must not change.
type Error struct {
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches by code so sentinel comparisons work across wrapped instances.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func newErr(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Sentinels for errors.Is checks.
var (
	ErrTaskDefinitionNotFound = newErr("TASK_DEFINITION_NOT_FOUND", "task definition not found")
	ErrJobNotFound            = newErr("JOB_NOT_FOUND", "job not found")
	ErrScheduleNotFound       = newErr("SCHEDULE_NOT_FOUND", "schedule not found")
	ErrContainerNotFound      = newErr("CONTAINER_NOT_FOUND", "container not found")
	ErrContainerIDNotFound    = newErr("CONTAINER_ID_NOT_FOUND", "container ID not found")

	ErrJobAlreadyFinished    = newErr("JOB_ALREADY_FINISHED", "job is already finished")
	ErrJobAlreadyFailed      = newErr("JOB_ALREADY_FAILED", "job is already failed")
	ErrJobHasNoContainerID   = newErr("JOB_HAS_NO_CONTAINER_ID", "job has no container ID")
	ErrJobLogExpired         = newErr("JOB_LOG_EXPIRED", "job logs have expired")
	ErrInvalidCronExpression = newErr("INVALID_CRON_EXPRESSION", "invalid cron expression")
	ErrInvalidJobTransition  = newErr("INVALID_JOB_TRANSITION", "invalid job status transition")
)

// InvalidCronExpression returns the validation error with parse detail attached.
func InvalidCronExpression(cause error) *Error {
	return &Error{Code: ErrInvalidCronExpression.Code, Message: "invalid cron expression", cause: cause}
}

// ContainerFailedToStart wraps the runtime's stderr from a failed docker run.
func ContainerFailedToStart(stderr string) *Error {
	return &Error{Code: "CONTAINER_FAILED_TO_START", Message: "failed to start container: " + stderr}
}

// ContainerFailedToInspect wraps a non-not-found inspect failure.
func ContainerFailedToInspect(cause error) *Error {
	return &Error{Code: "CONTAINER_FAILED_TO_INSPECT", Message: "failed to inspect container", cause: cause}
}

// ContainerFailedToKill wraps a failed docker kill.
func ContainerFailedToKill(cause error) *Error {
	return &Error{Code: "CONTAINER_FAILED_TO_KILL", Message: "failed to kill container", cause: cause}
}

// ContainerFailedToRemove wraps a failed docker rm.
func ContainerFailedToRemove(cause error) *Error {
	return &Error{Code: "CONTAINER_FAILED_TO_REMOVE", Message: "failed to remove container", cause: cause}
}

// Database wraps an infrastructural store error.
func Database(cause error) *Error {
	return &Error{Code: "DATABASE", Message: "database error", cause: cause}
}

// IO wraps a filesystem error, e.g. while reading container log files.
func IO(cause error) *Error {
	return &Error{Code: "IO", Message: "I/O error", cause: cause}
}

// Serialization wraps a JSON encode/decode failure.
func Serialization(cause error) *Error {
	return &Error{Code: "SERIALIZATION", Message: "serialization error", cause: cause}
}

// CodeOf extracts the stable code from err, or "INTERNAL" when err carries none.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "INTERNAL"
}
