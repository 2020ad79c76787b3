// Package sim runs what-if scenarios against a baseline schedule. A scenario
// delta perturbs a deep copy of the inputs, the solver re-optimizes, and the
// outcome reports the metrics shift against the baseline. The baseline inputs
// are never mutated.
package sim

import (
	"context"
	"sort"
	"time"

	"github.com/railops/railsched/core/logger"
	"github.com/railops/railsched/core/metrics"
	"github.com/railops/railsched/core/model"
	"github.com/railops/railsched/core/solver"
	"github.com/railops/railsched/core/topology"
)

// ScenarioDelta describes a perturbation of the baseline scenario.
type ScenarioDelta struct {
	// TrainDelays shifts the requested entry times of the named trains.
	TrainDelays map[string]time.Duration `json:"train_delays,omitempty"`
	// OutOfService removes sections from the network for the duration of
	// the scenario.
	OutOfService []string `json:"out_of_service,omitempty"`
	// SignalChanges overrides entry signal states per section.
	SignalChanges map[string]model.SignalState `json:"signal_changes,omitempty"`
}

// Outcome is the result of one simulation.
type Outcome struct {
	Schedule model.Schedule
	Status   solver.Status
	Cost     float64
	// Dropped lists trains that could not be rerouted around an
	// out-of-service section and were excluded from the run.
	Dropped []string
	Before  metrics.Metrics
	After   metrics.Metrics
	Diff    metrics.Metrics
}

// Simulator applies deltas and re-optimizes.
type Simulator struct {
	solver *solver.Solver
	mcfg   metrics.Config
	log    logger.Logger
}

// New creates a Simulator. A nil logger is replaced by a no-op logger.
func New(s *solver.Solver, mcfg metrics.Config, log logger.Logger) *Simulator {
	if log == nil {
		log = logger.Nop{}
	}
	return &Simulator{solver: s, mcfg: mcfg, log: log}
}

// Run applies the delta to copies of the inputs, re-optimizes and compares
// metrics against the baseline schedule. Trains whose route crosses a removed
// section are rerouted over an alternate path when one exists and dropped
// otherwise.
func (s *Simulator) Run(ctx context.Context, baseline model.Schedule, trains []model.Train, sections []model.TrackSection, delta ScenarioDelta, budget time.Duration) (Outcome, error) {
	if err := model.ValidateScenario(trains, sections); err != nil {
		return Outcome{}, err
	}
	modTrains := model.CloneTrains(trains)
	modSections := model.CloneSections(sections)

	applyDelays(modTrains, delta.TrainDelays)
	applySignals(modSections, delta.SignalChanges)
	modTrains, modSections, dropped := s.applyOutages(modTrains, modSections, delta.OutOfService)

	res, err := s.solver.Optimize(ctx, modTrains, modSections, budget)
	if err != nil {
		return Outcome{}, err
	}

	horizon := horizonWindow(baseline, res.Schedule, s.solver.HorizonLength())
	before := metrics.Compute(baseline, sections, horizon, s.mcfg)
	after := metrics.Compute(res.Schedule, modSections, horizon, s.mcfg)
	return Outcome{
		Schedule: res.Schedule,
		Status:   res.Status,
		Cost:     res.Cost,
		Dropped:  dropped,
		Before:   before,
		After:    after,
		Diff:     metrics.Diff(before, after),
	}, nil
}

func applyDelays(trains []model.Train, delays map[string]time.Duration) {
	if len(delays) == 0 {
		return
	}
	for i := range trains {
		d, ok := delays[trains[i].ID]
		if !ok {
			continue
		}
		for sec, win := range trains[i].Requested {
			trains[i].Requested[sec] = model.Window{
				Entry: win.Entry.Add(d),
				Exit:  win.Exit.Add(d),
			}
		}
	}
}

func applySignals(sections []model.TrackSection, changes map[string]model.SignalState) {
	if len(changes) == 0 {
		return
	}
	for i := range sections {
		if st, ok := changes[sections[i].ID]; ok {
			sections[i].Signal = st
		}
	}
}

// applyOutages removes the named sections and reroutes affected trains over
// the reduced network. A train with no remaining route is dropped.
func (s *Simulator) applyOutages(trains []model.Train, sections []model.TrackSection, outages []string) ([]model.Train, []model.TrackSection, []string) {
	if len(outages) == 0 {
		return trains, sections, nil
	}
	removed := make(map[string]bool, len(outages))
	for _, id := range outages {
		removed[id] = true
	}
	kept := make([]model.TrackSection, 0, len(sections))
	for _, sec := range sections {
		if !removed[sec.ID] {
			kept = append(kept, sec)
		}
	}
	topo := topology.New(kept)

	var out []model.Train
	var dropped []string
	for _, t := range trains {
		route, ok := reroute(topo, t.Route, removed)
		if !ok {
			s.log.Warnf("train %s has no route around out-of-service sections, dropping", t.ID)
			dropped = append(dropped, t.ID)
			continue
		}
		t.Route = route
		pruneRequested(&t)
		out = append(out, t)
	}
	sort.Strings(dropped)
	return out, kept, dropped
}

// reroute rebuilds a route that avoids the removed sections, reusing the
// surviving prefix and suffix and bridging each gap with a shortest path.
func reroute(topo *topology.Graph, route []string, removed map[string]bool) ([]string, bool) {
	affected := false
	for _, id := range route {
		if removed[id] {
			affected = true
			break
		}
	}
	if !affected {
		return route, true
	}
	var out []string
	i := 0
	for i < len(route) {
		if !removed[route[i]] {
			out = append(out, route[i])
			i++
			continue
		}
		j := i
		for j < len(route) && removed[route[j]] {
			j++
		}
		if i == 0 || j == len(route) {
			// No anchor on one side of the gap to bridge from.
			return nil, false
		}
		bridge, _, ok := topo.PathBetween(route[i-1], route[j])
		if !ok {
			return nil, false
		}
		out = append(out, bridge[1:len(bridge)-1]...)
		i = j
	}
	return out, true
}

// pruneRequested drops requested windows for sections no longer on the route.
func pruneRequested(t *model.Train) {
	onRoute := make(map[string]bool, len(t.Route))
	for _, id := range t.Route {
		onRoute[id] = true
	}
	for sec := range t.Requested {
		if !onRoute[sec] {
			delete(t.Requested, sec)
		}
	}
}

// horizonWindow anchors the comparison window at the earliest start of either
// schedule so both are measured over the same span.
func horizonWindow(before, after model.Schedule, length time.Duration) model.Window {
	start := before.Start()
	if a := after.Start(); !a.IsZero() && (start.IsZero() || a.Before(start)) {
		start = a
	}
	return model.Window{Entry: start, Exit: start.Add(length)}
}
