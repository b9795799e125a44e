package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/autofyn/linkedgen/internal/store"
)

// Run metrics land in the default registry, which /metrics serves.
var (
	runsStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "linkedgen",
		Name:      "runs_started_total",
		Help:      "Agent runs started, by kind and trigger.",
	}, []string{"kind", "trigger"})

	runsFinished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "linkedgen",
		Name:      "runs_finished_total",
		Help:      "Agent runs finished, by kind and final status.",
	}, []string{"kind", "status"})

	runDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "linkedgen",
		Name:      "run_duration_seconds",
		Help:      "Wall clock duration of one agent run.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(runsStarted, runsFinished, runDuration)
}

func observeRun(kind string, started time.Time, err error) {
	status := store.RunStatusSuccess
	if err != nil {
		status = store.RunStatusError
	}
	runsFinished.WithLabelValues(kind, status).Inc()
	runDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}
