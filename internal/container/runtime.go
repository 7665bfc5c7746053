package container

import (
	"context"
	"time"

	"github.com/loykin/dockhand/internal/model"
)

// State is the normalized container state reported by Inspect.
// StartedAt/FinishedAt are nil while the runtime reports the zero
// timestamp for them.
type State struct {
	Status     string
	Running    bool
	Paused     bool
	Restarting bool
	OOMKilled  bool
	Dead       bool
	ExitCode   int
	StartedAt  *time.Time
	FinishedAt *time.Time
	Error      string
}

// InspectResult is the slice of inspect output the core consumes.
type InspectResult struct {
	State   State
	LogPath string
}

// RemoveOptions control container cleanup.
type RemoveOptions struct {
	Force   bool
	Volumes bool
	Links   bool
}

// Runtime is the container-runtime capability. The default adapter
// shells out to a docker-compatible CLI; the core never parses vendor
// formats beyond this contract.
type Runtime interface {
	// Run launches a detached container for the task definition and
	// returns its container id. Fails with a CONTAINER_FAILED_TO_START
	// error carrying the runtime's stderr.
	Run(ctx context.Context, td model.TaskDefinition) (string, error)
	// Inspect reports current state; apperr.ErrContainerNotFound when
	// the runtime no longer knows the id.
	Inspect(ctx context.Context, containerID string) (InspectResult, error)
	// Stop attempts a graceful stop within timeout, falling back to
	// Kill on any failure other than not-found.
	Stop(ctx context.Context, containerID string, timeout time.Duration) error
	Kill(ctx context.Context, containerID string) error
	Remove(ctx context.Context, containerID string, opts RemoveOptions) error
}
