package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	runDuration       *prometheus.HistogramVec
	runsTotal         *prometheus.CounterVec
	conflictsDetected prometheus.Counter
	resolutionsTotal  prometheus.Counter
	simulationsTotal  *prometheus.CounterVec
	scheduleCostGauge prometheus.Gauge
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.HistogramVec, *prometheus.CounterVec, prometheus.Counter, prometheus.Counter, *prometheus.CounterVec, prometheus.Gauge) {
	dur := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "schedule_optimization_duration_seconds",
			Help:    "Wall-clock duration of schedule optimization runs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)
	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_runs_total",
			Help: "Number of optimization runs by terminal status",
		},
		[]string{"status"},
	)
	conf := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "schedule_conflicts_detected_total",
			Help: "Number of conflicts reported by detection",
		},
	)
	res := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "schedule_resolutions_proposed_total",
			Help: "Number of resolution proposals generated",
		},
	)
	sims := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_simulations_total",
			Help: "Number of what-if simulations by terminal status",
		},
		[]string{"status"},
	)
	cost := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "schedule_last_cost",
			Help: "Objective cost of the most recent feasible schedule",
		},
	)
	return dur, runs, conf, res, sims, cost
}

func init() {
	runDuration, runsTotal, conflictsDetected, resolutionsTotal, simulationsTotal, scheduleCostGauge = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers engine metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(runDuration, runsTotal, conflictsDetected, resolutionsTotal, simulationsTotal, scheduleCostGauge)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	runDuration, runsTotal, conflictsDetected, resolutionsTotal, simulationsTotal, scheduleCostGauge = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
