package metrics

import (
	"time"

	"github.com/railops/railsched/core/model"
)

// RunRecord summarizes one engine run for observability purposes.
type RunRecord struct {
	RunID     string
	Status    string
	Cost      float64
	Trains    int
	Conflicts int
	Elapsed   time.Duration
	Metrics   Metrics
	Time      time.Time
}

// RunRecorder records completed optimization runs.
type RunRecorder interface {
	RecordRun(rec RunRecord) error
}

// ConflictRecorder records detected conflicts.
type ConflictRecorder interface {
	RecordConflicts(runID string, conflicts []model.Conflict) error
}

// ResolutionRecorder records proposed resolutions.
type ResolutionRecorder interface {
	RecordResolutions(runID string, resolutions []model.Resolution) error
}

// Sink is the full observability surface of the engine.
type Sink interface {
	RunRecorder
	ConflictRecorder
	ResolutionRecorder
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(RunRecord) error                          { return nil }
func (NopSink) RecordConflicts(string, []model.Conflict) error     { return nil }
func (NopSink) RecordResolutions(string, []model.Resolution) error { return nil }
