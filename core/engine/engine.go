// Package engine is the orchestration facade over the scheduling core. It
// validates inputs, runs the solver, detector, resolution generator and
// simulator, and fans results out to the event bus, the metrics sink, the
// Prometheus collectors and the run history store.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/railops/railsched/core/conflict"
	"github.com/railops/railsched/core/engine/runlog"
	"github.com/railops/railsched/core/events"
	"github.com/railops/railsched/core/logger"
	"github.com/railops/railsched/core/metrics"
	"github.com/railops/railsched/core/model"
	"github.com/railops/railsched/core/resolve"
	"github.com/railops/railsched/core/sim"
	"github.com/railops/railsched/core/solver"
	"github.com/railops/railsched/internal/eventbus"
)

// Config assembles the tunables of all engine components.
type Config struct {
	Solver  solver.Config  `json:"solver"`
	Metrics metrics.Config `json:"metrics"`
}

func (c *Config) SetDefaults() {
	c.Solver.SetDefaults()
	c.Metrics.SetDefaults()
}

func (c *Config) Validate() error {
	return c.Solver.Validate()
}

// Options carries the optional collaborators of an Engine. Zero values are
// replaced by no-op implementations.
type Options struct {
	Logger logger.Logger
	Sink   metrics.Sink
	Bus    eventbus.EventBus
	RunLog runlog.Store
}

// Engine exposes the external operations of the scheduling service.
type Engine struct {
	cfg    Config
	solver *solver.Solver
	gen    *resolve.Generator
	sim    *sim.Simulator
	log    logger.Logger
	sink   metrics.Sink
	bus    eventbus.EventBus
	runlog runlog.Store
}

// New creates an Engine from the configuration and options.
func New(cfg Config, opts Options) (*Engine, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop{}
	}
	sink := opts.Sink
	if sink == nil {
		sink = metrics.NopSink{}
	}
	store := opts.RunLog
	if store == nil {
		store = runlog.NopStore{}
	}
	s := solver.New(cfg.Solver, log)
	return &Engine{
		cfg:    cfg,
		solver: s,
		gen:    resolve.New(s, log),
		sim:    sim.New(s, cfg.Metrics, log),
		log:    log,
		sink:   sink,
		bus:    opts.Bus,
		runlog: store,
	}, nil
}

// Close releases the run history store.
func (e *Engine) Close() error {
	return e.runlog.Close()
}

// Optimize runs the solver over the scenario. A zero budget falls back to the
// configured default; weights override the configured objective when non-zero.
func (e *Engine) Optimize(ctx context.Context, trains []model.Train, sections []model.TrackSection, w solver.Weights, budget time.Duration) (solver.Result, error) {
	runID := uuid.NewString()
	if w == (solver.Weights{}) {
		w = e.cfg.Solver.Weights
	}
	res, err := e.solver.OptimizeWith(ctx, trains, sections, w, budget)
	if err != nil {
		return res, err
	}
	e.recordRun(ctx, runID, "optimize", res, len(trains))
	return res, nil
}

// Reoptimize warm-starts the solver from a previous schedule.
func (e *Engine) Reoptimize(ctx context.Context, prev model.Schedule, trains []model.Train, sections []model.TrackSection, budget time.Duration) (solver.Result, error) {
	runID := uuid.NewString()
	res, err := e.solver.Reoptimize(ctx, prev, trains, sections, budget)
	if err != nil {
		return res, err
	}
	e.recordRun(ctx, runID, "reoptimize", res, len(trains))
	return res, nil
}

// DetectConflicts lists every capacity and headway violation in the schedule.
func (e *Engine) DetectConflicts(ctx context.Context, sched model.Schedule, sections []model.TrackSection) ([]model.Conflict, error) {
	if err := model.ValidateScheduleRefs(sched, sections); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	conflicts := conflict.Detect(sched, sections)
	conflictsDetected.Add(float64(len(conflicts)))
	e.publish(events.ConflictEvent{RunID: runID, Conflicts: conflicts})
	if err := e.sink.RecordConflicts(runID, conflicts); err != nil {
		e.log.Warnf("record conflicts: %v", err)
	}
	e.append(ctx, runlog.Record{
		Timestamp: time.Now(),
		RunID:     runID,
		Operation: "detect",
		Status:    "ok",
		Conflicts: len(conflicts),
	})
	return conflicts, nil
}

// ResolveConflicts proposes ranked corrective actions for the conflicts.
func (e *Engine) ResolveConflicts(ctx context.Context, conflicts []model.Conflict, trains []model.Train, sections []model.TrackSection) ([]model.Resolution, error) {
	runID := uuid.NewString()
	resolutions, err := e.gen.Propose(conflicts, trains, sections)
	if err != nil {
		return nil, err
	}
	resolutionsTotal.Add(float64(len(resolutions)))
	e.publish(events.ResolutionEvent{RunID: runID, Resolutions: len(resolutions)})
	if err := e.sink.RecordResolutions(runID, resolutions); err != nil {
		e.log.Warnf("record resolutions: %v", err)
	}
	e.append(ctx, runlog.Record{
		Timestamp: time.Now(),
		RunID:     runID,
		Operation: "resolve",
		Status:    "ok",
		Conflicts: len(conflicts),
	})
	return resolutions, nil
}

// Simulate runs a what-if scenario against the baseline schedule.
func (e *Engine) Simulate(ctx context.Context, baseline model.Schedule, trains []model.Train, sections []model.TrackSection, delta sim.ScenarioDelta, budget time.Duration) (sim.Outcome, error) {
	runID := uuid.NewString()
	out, err := e.sim.Run(ctx, baseline, trains, sections, delta, budget)
	if err != nil {
		return out, err
	}
	simulationsTotal.WithLabelValues(out.Status.String()).Inc()
	e.publish(events.SimulationEvent{RunID: runID, Status: out.Status.String(), Dropped: out.Dropped})
	e.append(ctx, runlog.Record{
		Timestamp: time.Now(),
		RunID:     runID,
		Operation: "simulate",
		Status:    out.Status.String(),
		Cost:      out.Cost,
		Trains:    len(trains),
	})
	return out, nil
}

// ComputeMetrics derives quality indicators for the schedule over the
// configured horizon.
func (e *Engine) ComputeMetrics(sched model.Schedule, sections []model.TrackSection) (metrics.Metrics, error) {
	if err := model.ValidateScheduleRefs(sched, sections); err != nil {
		return metrics.Metrics{}, err
	}
	start := sched.Start()
	horizon := model.Window{Entry: start, Exit: start.Add(e.solver.HorizonLength())}
	return metrics.Compute(sched, sections, horizon, e.cfg.Metrics), nil
}

func (e *Engine) recordRun(ctx context.Context, runID, op string, res solver.Result, trains int) {
	status := res.Status.String()
	runsTotal.WithLabelValues(status).Inc()
	runDuration.WithLabelValues(status).Observe(res.Elapsed.Seconds())
	if res.Schedule != nil {
		scheduleCostGauge.Set(res.Cost)
	}
	e.publish(events.RunEvent{RunID: runID, Status: status, Cost: res.Cost, Trains: trains, Elapsed: res.Elapsed})
	if err := e.sink.RecordRun(metrics.RunRecord{
		RunID:   runID,
		Status:  status,
		Cost:    res.Cost,
		Trains:  trains,
		Elapsed: res.Elapsed,
		Time:    time.Now(),
	}); err != nil {
		e.log.Warnf("record run: %v", err)
	}
	detail := ""
	if len(res.Violations) > 0 {
		detail = res.Violations[0].Reason
	}
	e.append(ctx, runlog.Record{
		Timestamp: time.Now(),
		RunID:     runID,
		Operation: op,
		Status:    status,
		Cost:      res.Cost,
		Trains:    trains,
		ElapsedMs: res.Elapsed.Milliseconds(),
		Detail:    detail,
	})
}

func (e *Engine) publish(ev eventbus.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}

func (e *Engine) append(ctx context.Context, rec runlog.Record) {
	if err := e.runlog.Append(ctx, rec); err != nil {
		e.log.Warnf("append run log: %v", err)
	}
}
