// Package metrics holds the Prometheus collectors shared by both workflows.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Candidate outcomes recorded by the report pipeline.
const (
	OutcomeAccepted        = "accepted"
	OutcomeIrrelevant      = "irrelevant"
	OutcomeMalformed       = "malformed"
	OutcomeClassifierError = "classifier_error"
	OutcomePrefiltered     = "prefiltered"
)

var (
	Candidates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agent_helper",
		Subsystem: "report",
		Name:      "candidates_total",
		Help:      "Search candidates processed by the report pipeline, by outcome.",
	}, []string{"outcome"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "agent_helper",
		Name:      "stage_duration_seconds",
		Help:      "Latency of pipeline and graph stages.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"stage"})

	ImageFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agent_helper",
		Subsystem: "report",
		Name:      "image_failures_total",
		Help:      "Header image generations that degraded to an empty image.",
	})

	TripRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agent_helper",
		Subsystem: "trip",
		Name:      "runs_total",
		Help:      "Trip planning runs, by terminal branch.",
	}, []string{"branch"})

	PlannerFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agent_helper",
		Subsystem: "trip",
		Name:      "planner_failures_total",
		Help:      "Journey planner calls that failed the run.",
	})
)

// ObserveStage records how long a stage took. Use with defer:
//
//	defer metrics.ObserveStage("synthesize")()
func ObserveStage(stage string) func() {
	timer := prometheus.NewTimer(StageDuration.WithLabelValues(stage))
	return func() { timer.ObserveDuration() }
}
