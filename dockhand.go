// Package dockhand is a lightweight batch job orchestrator: versioned
// task definitions, one-shot jobs executed as docker containers, and
// cron schedules that submit jobs on a recurrence.
package dockhand

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/loykin/dockhand/internal/background"
	"github.com/loykin/dockhand/internal/cdc"
	"github.com/loykin/dockhand/internal/config"
	"github.com/loykin/dockhand/internal/container"
	"github.com/loykin/dockhand/internal/logger"
	"github.com/loykin/dockhand/internal/metrics"
	"github.com/loykin/dockhand/internal/server"
	"github.com/loykin/dockhand/internal/service"
	"github.com/loykin/dockhand/internal/store"
	"github.com/loykin/dockhand/internal/store/factory"
)

// Config re-exports the daemon configuration for embedding consumers.
type Config = config.Config

// LoadConfig reads a TOML config file; an empty path yields defaults
// with DOCKHAND_* environment overrides.
func LoadConfig(path string) (Config, error) { return config.Load(path) }

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config { return config.Default() }

// App wires the store, the services, the HTTP surface, and the three
// background loops. Build one with New and drive it with Run.
type App struct {
	cfg    Config
	st     store.Store
	router *server.Router

	runner    *background.Runner
	tracker   *background.Tracker
	scheduler *background.Scheduler
}

// New builds a fully wired App from cfg. The store schema is created
// lazily by Run.
func New(cfg Config) (*App, error) {
	logger.Setup(cfg.Log)

	st, err := factory.New(cfg.Store)
	if err != nil {
		return nil, err
	}

	bus := cdc.NewBus(cdc.DefaultCapacity, metrics.IncCDCDropped)
	runtime := container.NewDocker(cfg.Container.Bin)

	taskdefs := service.NewTaskDefinitionService(st.TaskDefinitions())
	jobs := service.NewJobService(st.Jobs(), st.TaskDefinitions(), runtime, cfg.Container.StopTimeout)
	schedules := service.NewScheduleService(st.Schedules(), st.TaskDefinitions(), bus)

	return &App{
		cfg:    cfg,
		st:     st,
		router: server.NewRouter(st, taskdefs, jobs, schedules),
		runner: &background.Runner{
			Jobs:      st.Jobs(),
			Service:   jobs,
			BatchSize: cfg.Runner.BatchSize,
			IdleSleep: cfg.Runner.IdleSleep,
		},
		tracker: &background.Tracker{
			Jobs:      st.Jobs(),
			Service:   jobs,
			PollSleep: cfg.Tracker.PollSleep,
			IdleSleep: cfg.Tracker.IdleSleep,
		},
		scheduler: &background.Scheduler{
			Schedules:  st.Schedules(),
			Jobs:       jobs,
			Bus:        bus,
			Tick:       cfg.Scheduler.Tick,
			EmptySleep: cfg.Scheduler.EmptySleep,
		},
	}, nil
}

// Handler exposes the HTTP surface for embedding in another mux or for
// tests.
func (a *App) Handler() http.Handler { return a.router.Handler() }

// Run ensures the schema, registers metrics, then serves HTTP and the
// background loops until ctx is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	defer func() { _ = a.st.Close() }()

	if err := a.st.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              a.cfg.Server.Listen,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutCtx)
	})
	g.Go(func() error {
		err := background.Supervise(ctx, a.runner, a.tracker, a.scheduler)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
