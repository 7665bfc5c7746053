package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("while submitting: %w", ErrTaskDefinitionNotFound)
	if !errors.Is(wrapped, ErrTaskDefinitionNotFound) {
		t.Fatalf("wrapped sentinel did not match")
	}

	detailed := InvalidCronExpression(errors.New("expected 5 or 6 fields"))
	if !errors.Is(detailed, ErrInvalidCronExpression) {
		t.Fatalf("constructed error did not match sentinel with same code")
	}
	if errors.Is(detailed, ErrJobNotFound) {
		t.Fatalf("different codes must not match")
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := Database(errors.New("connection refused"))
	if got := err.Error(); got != "database error: connection refused" {
		t.Fatalf("message = %q", got)
	}
	if err.Unwrap() == nil {
		t.Fatalf("cause not preserved")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(ErrJobLogExpired); got != "JOB_LOG_EXPIRED" {
		t.Fatalf("code = %s", got)
	}
	if got := CodeOf(fmt.Errorf("wrapped: %w", ErrScheduleNotFound)); got != "SCHEDULE_NOT_FOUND" {
		t.Fatalf("wrapped code = %s", got)
	}
	if got := CodeOf(errors.New("plain")); got != "INTERNAL" {
		t.Fatalf("plain code = %s", got)
	}
}

func TestContainerFailedToStartCarriesStderr(t *testing.T) {
	err := ContainerFailedToStart("Unable to find image 'busybox:latest'")
	if err.Code != "CONTAINER_FAILED_TO_START" {
		t.Fatalf("code = %s", err.Code)
	}
	if got := err.Error(); got != "failed to start container: Unable to find image 'busybox:latest'" {
		t.Fatalf("message = %q", got)
	}
}
