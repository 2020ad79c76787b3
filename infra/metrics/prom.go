// Package metrics provides the Prometheus-backed implementation of the core
// observability sink.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/railops/railsched/core/metrics"
	"github.com/railops/railsched/core/model"
)

// PromSink records engine events in Prometheus metrics.
type PromSink struct {
	runs        *prometheus.CounterVec
	delay       prometheus.Histogram
	conflicts   *prometheus.CounterVec
	resolutions *prometheus.CounterVec
}

// NewPromSink registers engine metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink() (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "railsched_runs_total",
		Help: "Total number of recorded engine runs",
	}, []string{"status"})
	delay := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "railsched_run_elapsed_seconds",
		Help:    "Wall-clock time of recorded engine runs",
		Buckets: prometheus.DefBuckets,
	})
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "railsched_conflicts_total",
		Help: "Total number of recorded conflicts by kind",
	}, []string{"kind"})
	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "railsched_resolutions_total",
		Help: "Total number of recorded resolution proposals by strategy",
	}, []string{"strategy"})

	if err := reg.Register(runs); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			runs = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(delay); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			delay = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(conflicts); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			conflicts = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(resolutions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			resolutions = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{runs: runs, delay: delay, conflicts: conflicts, resolutions: resolutions}, nil
}

// RecordRun counts the run and observes its wall-clock time.
func (s *PromSink) RecordRun(rec coremetrics.RunRecord) error {
	s.runs.WithLabelValues(rec.Status).Inc()
	s.delay.Observe(rec.Elapsed.Seconds())
	return nil
}

// RecordConflicts counts conflicts by kind.
func (s *PromSink) RecordConflicts(runID string, conflicts []model.Conflict) error {
	for _, c := range conflicts {
		s.conflicts.WithLabelValues(c.Kind.String()).Inc()
	}
	return nil
}

// RecordResolutions counts proposals by strategy.
func (s *PromSink) RecordResolutions(runID string, resolutions []model.Resolution) error {
	for _, r := range resolutions {
		s.resolutions.WithLabelValues(r.Strategy.String()).Inc()
	}
	return nil
}
