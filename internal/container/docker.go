package container

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/loykin/dockhand/internal/apperr"
	"github.com/loykin/dockhand/internal/model"
)

// Docker shells out to a docker-compatible CLI. The log driver is pinned
// to json-file so the log read path can page the emitted file directly.
type Docker struct {
	Bin string

	// execCommand is swappable for tests; defaults to os/exec.
	execCommand func(ctx context.Context, bin string, args ...string) (stdout, stderr []byte, err error)
}

// NewDocker creates an adapter for bin ("docker" when empty).
func NewDocker(bin string) *Docker {
	if bin == "" {
		bin = "docker"
	}
	return &Docker{Bin: bin, execCommand: runCommand}
}

func runCommand(ctx context.Context, bin string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Run launches a detached container. Empty env entries and args tokens
// are skipped rather than forwarded as empty CLI arguments.
func (d *Docker) Run(ctx context.Context, td model.TaskDefinition) (string, error) {
	args := []string{"run", "-d", "--log-driver", "json-file"}
	if td.MemoryLimitMB != nil {
		args = append(args, "--memory", fmt.Sprintf("%dm", *td.MemoryLimitMB))
	}
	if td.CPUShares != nil {
		args = append(args, "--cpu-shares", strconv.Itoa(*td.CPUShares))
	}
	for _, kv := range strings.Split(td.Env, ",") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		args = append(args, "-e", kv)
	}
	args = append(args, td.Image)
	args = append(args, td.Command...)
	for _, a := range strings.Split(td.Args, ",") {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		args = append(args, a)
	}

	stdout, stderr, err := d.execCommand(ctx, d.Bin, args...)
	if err != nil {
		return "", apperr.ContainerFailedToStart(strings.TrimSpace(string(stderr)))
	}
	return strings.TrimSpace(string(stdout)), nil
}

// inspectEntry mirrors the fields of `docker inspect` output the core
// consumes; everything else is ignored.
type inspectEntry struct {
	State struct {
		Status     string `json:"Status"`
		Running    bool   `json:"Running"`
		Paused     bool   `json:"Paused"`
		Restarting bool   `json:"Restarting"`
		OOMKilled  bool   `json:"OOMKilled"`
		Dead       bool   `json:"Dead"`
		ExitCode   int    `json:"ExitCode"`
		StartedAt  string `json:"StartedAt"`
		FinishedAt string `json:"FinishedAt"`
		Error      string `json:"Error"`
	} `json:"State"`
	LogPath string `json:"LogPath"`
}

func (d *Docker) Inspect(ctx context.Context, containerID string) (InspectResult, error) {
	stdout, stderr, err := d.execCommand(ctx, d.Bin, "inspect", containerID)
	if err != nil {
		if strings.Contains(string(stderr), "No such object") {
			return InspectResult{}, apperr.ErrContainerNotFound
		}
		return InspectResult{}, apperr.ContainerFailedToInspect(fmt.Errorf("%s: %w", strings.TrimSpace(string(stderr)), err))
	}

	var entries []inspectEntry
	if err := json.Unmarshal(stdout, &entries); err != nil {
		return InspectResult{}, apperr.Serialization(err)
	}
	if len(entries) == 0 {
		return InspectResult{}, apperr.ErrContainerNotFound
	}

	e := entries[0]
	res := InspectResult{LogPath: e.LogPath}
	res.State = State{
		Status:     e.State.Status,
		Running:    e.State.Running,
		Paused:     e.State.Paused,
		Restarting: e.State.Restarting,
		OOMKilled:  e.State.OOMKilled,
		Dead:       e.State.Dead,
		ExitCode:   e.State.ExitCode,
		StartedAt:  parseDockerTime(e.State.StartedAt),
		FinishedAt: parseDockerTime(e.State.FinishedAt),
		Error:      e.State.Error,
	}
	return res, nil
}

// parseDockerTime maps docker's zero timestamp ("0001-01-01T00:00:00Z")
// to nil.
func parseDockerTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil || t.IsZero() || t.Year() <= 1 {
		return nil
	}
	return &t
}

func (d *Docker) Stop(ctx context.Context, containerID string, timeout time.Duration) error {
	secs := int(timeout.Seconds())
	if secs < 0 {
		secs = 0
	}
	_, stderr, err := d.execCommand(ctx, d.Bin, "stop", "-t", strconv.Itoa(secs), containerID)
	if err == nil {
		return nil
	}
	if strings.Contains(string(stderr), "No such container") {
		return apperr.ErrContainerNotFound
	}
	return d.Kill(ctx, containerID)
}

func (d *Docker) Kill(ctx context.Context, containerID string) error {
	_, stderr, err := d.execCommand(ctx, d.Bin, "kill", containerID)
	if err != nil {
		if strings.Contains(string(stderr), "No such container") {
			return apperr.ErrContainerNotFound
		}
		return apperr.ContainerFailedToKill(fmt.Errorf("%s: %w", strings.TrimSpace(string(stderr)), err))
	}
	return nil
}

func (d *Docker) Remove(ctx context.Context, containerID string, opts RemoveOptions) error {
	args := []string{"rm"}
	if opts.Force {
		args = append(args, "--force")
	}
	if opts.Volumes {
		args = append(args, "--volumes")
	}
	if opts.Links {
		args = append(args, "--link")
	}
	args = append(args, containerID)
	_, stderr, err := d.execCommand(ctx, d.Bin, args...)
	if err != nil {
		if strings.Contains(string(stderr), "No such container") {
			return apperr.ErrContainerNotFound
		}
		return apperr.ContainerFailedToRemove(fmt.Errorf("%s: %w", strings.TrimSpace(string(stderr)), err))
	}
	return nil
}
