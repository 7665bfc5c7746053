package container

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/loykin/dockhand/internal/apperr"
	"github.com/loykin/dockhand/internal/model"
)

type call struct {
	args []string
}

func fakeDocker(stdout, stderr string, err error) (*Docker, *[]call) {
	calls := &[]call{}
	d := NewDocker("docker")
	d.execCommand = func(_ context.Context, _ string, args ...string) ([]byte, []byte, error) {
		*calls = append(*calls, call{args: args})
		return []byte(stdout), []byte(stderr), err
	}
	return d, calls
}

func TestRunBuildsArgs(t *testing.T) {
	d, calls := fakeDocker("abc123\n", "", nil)

	mem, cpu := 256, 512
	td := model.TaskDefinition{
		Image:         "busybox",
		Command:       []string{"sh", "-c"},
		Args:          "echo hi,, ",
		Env:           "FOO=1,,BAR=2",
		MemoryLimitMB: &mem,
		CPUShares:     &cpu,
	}
	id, err := d.Run(context.Background(), td)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if id != "abc123" {
		t.Fatalf("container id: %q", id)
	}

	got := strings.Join((*calls)[0].args, " ")
	want := "run -d --log-driver json-file --memory 256m --cpu-shares 512 -e FOO=1 -e BAR=2 busybox sh -c echo hi"
	if got != want {
		t.Fatalf("args:\n got %q\nwant %q", got, want)
	}
}

func TestRunFailureCarriesStderr(t *testing.T) {
	d, _ := fakeDocker("", "pull access denied", errors.New("exit status 125"))
	_, err := d.Run(context.Background(), model.TaskDefinition{Image: "nope"})
	if err == nil || !strings.Contains(err.Error(), "pull access denied") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestInspectParsesState(t *testing.T) {
	out := `[{"State":{"Status":"exited","Running":false,"Dead":false,"ExitCode":0,
		"StartedAt":"2026-08-24T12:00:00.5Z","FinishedAt":"2026-08-24T12:00:05Z","Error":""},
		"LogPath":"/var/lib/docker/containers/x/x-json.log"}]`
	d, calls := fakeDocker(out, "", nil)

	res, err := d.Inspect(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if len(*calls) != 1 || (*calls)[0].args[0] != "inspect" {
		t.Fatalf("unexpected call: %+v", *calls)
	}
	if res.State.Running || res.State.ExitCode != 0 {
		t.Fatalf("state: %+v", res.State)
	}
	if res.State.FinishedAt == nil || res.State.FinishedAt.Minute() != 0 {
		t.Fatalf("finished_at: %v", res.State.FinishedAt)
	}
	if res.LogPath == "" {
		t.Fatalf("expected log path")
	}
}

func TestInspectZeroTimesAreNil(t *testing.T) {
	out := `[{"State":{"Status":"created","Running":false,
		"StartedAt":"0001-01-01T00:00:00Z","FinishedAt":"0001-01-01T00:00:00Z"},"LogPath":""}]`
	d, _ := fakeDocker(out, "", nil)
	res, err := d.Inspect(context.Background(), "abc")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if res.State.StartedAt != nil || res.State.FinishedAt != nil {
		t.Fatalf("expected nil times: %+v", res.State)
	}
}

func TestInspectNotFound(t *testing.T) {
	d, _ := fakeDocker("", "Error: No such object: abc", errors.New("exit status 1"))
	_, err := d.Inspect(context.Background(), "abc")
	if !errors.Is(err, apperr.ErrContainerNotFound) {
		t.Fatalf("expected ErrContainerNotFound, got %v", err)
	}
}

func TestStopFallsBackToKill(t *testing.T) {
	var cmds []string
	d := NewDocker("docker")
	d.execCommand = func(_ context.Context, _ string, args ...string) ([]byte, []byte, error) {
		cmds = append(cmds, args[0])
		if args[0] == "stop" {
			return nil, []byte("cannot stop"), errors.New("exit status 1")
		}
		return nil, nil, nil
	}
	if err := d.Stop(context.Background(), "abc", 3*time.Second); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if len(cmds) != 2 || cmds[0] != "stop" || cmds[1] != "kill" {
		t.Fatalf("expected stop then kill, got %v", cmds)
	}
}

func TestStopTimeoutFlag(t *testing.T) {
	d, calls := fakeDocker("", "", nil)
	if err := d.Stop(context.Background(), "abc", 3*time.Second); err != nil {
		t.Fatalf("stop: %v", err)
	}
	got := strings.Join((*calls)[0].args, " ")
	if got != "stop -t 3 abc" {
		t.Fatalf("args: %q", got)
	}
}

func TestRemoveFlags(t *testing.T) {
	d, calls := fakeDocker("", "", nil)
	err := d.Remove(context.Background(), "abc", RemoveOptions{Force: true, Volumes: true})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	got := strings.Join((*calls)[0].args, " ")
	if got != "rm --force --volumes abc" {
		t.Fatalf("args: %q", got)
	}
}
