// Package metrics provides Prometheus metrics for depth generation and the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DepthRequestsTotal counts StartDepthGeneration outcomes (accepted, conflict, error)
	DepthRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "depthtrack_depth_requests_total",
		Help: "Total depth generation requests, by outcome.",
	}, []string{"outcome"})

	// DepthRunsTotal counts finished pipeline runs
	DepthRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "depthtrack_depth_runs_total",
		Help: "Total depth pipeline runs, by result.",
	}, []string{"result"})

	// DepthStageFailures counts failed runs by the stage that failed
	DepthStageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "depthtrack_depth_stage_failures_total",
		Help: "Total depth pipeline failures, by stage.",
	}, []string{"stage"})

	// DepthRunDuration tracks wall time of a pipeline run
	DepthRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "depthtrack_depth_run_duration_seconds",
		Help:    "Duration of depth pipeline runs.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 11), // 1s to ~17m
	}, []string{"result"})

	// DepthRunsInFlight is the number of pipeline runs executing right now
	DepthRunsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "depthtrack_depth_runs_in_flight",
		Help: "Current number of executing depth pipeline runs.",
	})

	// DepthRecovered counts assets failed at startup because their run died with the process
	DepthRecovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "depthtrack_depth_recovered_total",
		Help: "Total generating assets failed by startup recovery.",
	})
)

// RecordDepthRequest increments the request counter for an outcome
func RecordDepthRequest(outcome string) {
	DepthRequestsTotal.WithLabelValues(outcome).Inc()
}

// ObserveDepthRun records a finished run. stage is empty on success.
func ObserveDepthRun(stage string, elapsed time.Duration) {
	result := "succeeded"
	if stage != "" {
		result = "failed"
		DepthStageFailures.WithLabelValues(stage).Inc()
	}
	DepthRunsTotal.WithLabelValues(result).Inc()
	DepthRunDuration.WithLabelValues(result).Observe(elapsed.Seconds())
}
