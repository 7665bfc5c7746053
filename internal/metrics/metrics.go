package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	jobsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dockhand",
			Subsystem: "job",
			Name:      "submitted_total",
			Help:      "Number of jobs accepted into the queue.",
		},
	)
	jobTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dockhand",
			Subsystem: "job",
			Name:      "state_transitions_total",
			Help:      "Number of job status transitions applied.",
		}, []string{"to"},
	)
	runningJobs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dockhand",
			Subsystem: "job",
			Name:      "running",
			Help:      "Jobs currently observed in Running state by the tracker.",
		},
	)
	schedulerTriggers = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dockhand",
			Subsystem: "scheduler",
			Name:      "triggers_total",
			Help:      "Number of jobs submitted by the scheduler.",
		},
	)
	schedulerReloads = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dockhand",
			Subsystem: "scheduler",
			Name:      "reloads_total",
			Help:      "Number of working-set reloads triggered by CDC events.",
		},
	)
	cdcDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dockhand",
			Subsystem: "cdc",
			Name:      "dropped_total",
			Help:      "CDC events evicted because the bus was full.",
		},
	)
	loopErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dockhand",
			Subsystem: "loop",
			Name:      "errors_total",
			Help:      "Per-item errors observed by the background loops.",
		}, []string{"loop"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{jobsSubmitted, jobTransitions, runningJobs, schedulerTriggers, schedulerReloads, cdcDropped, loopErrors}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler serving the DefaultGatherer.
func Handler() http.Handler {
	return promhttp.Handler()
}

func IncJobsSubmitted()             { jobsSubmitted.Inc() }
func IncJobTransition(to string)    { jobTransitions.WithLabelValues(to).Inc() }
func SetRunningJobs(n float64)      { runningJobs.Set(n) }
func IncSchedulerTrigger()          { schedulerTriggers.Inc() }
func IncSchedulerReload()           { schedulerReloads.Inc() }
func IncCDCDropped()                { cdcDropped.Inc() }
func IncLoopError(loop string)      { loopErrors.WithLabelValues(loop).Inc() }
