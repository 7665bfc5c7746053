package background

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Package background holds the three long-running loops that drive the
// job state machine: runner (Pending -> launched), tracker (Running ->
// terminal), and scheduler (cron -> submitted). Loops never abort on a
// per-item error; they log and move on. They stop only when their
// context is cancelled.

// Loop is one supervised background task.
type Loop interface {
	Name() string
	Run(ctx context.Context) error
}

// Supervise runs all loops until the context is cancelled or one of them
// fails; the first failure cancels the rest and is returned.
func Supervise(ctx context.Context, loops ...Loop) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, l := range loops {
		g.Go(func() error { return l.Run(ctx) })
	}
	return g.Wait()
}

// sleep pauses for d unless the context ends first; reports whether the
// caller should keep running.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
