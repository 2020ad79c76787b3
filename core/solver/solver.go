// Package solver computes conflict-free schedules for trains over shared
// track sections. The search is a deterministic priority-greedy construction
// refined by bounded local search over entry orderings; it honours a
// wall-clock budget and context cancellation, returning the best feasible
// schedule found so far.
package solver

import (
	"context"
	"sort"
	"time"

	"github.com/railops/railsched/core/logger"
	"github.com/railops/railsched/core/model"
)

// Status reports the outcome of an optimization run.
type Status int

const (
	StatusOptimal Status = iota
	StatusFeasible
	StatusInfeasible
	StatusTimedOut
	StatusCancelled
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	case StatusTimedOut:
		return "timed_out"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ConstraintViolation identifies one hard constraint that could not be
// satisfied, for infeasibility diagnostics.
type ConstraintViolation struct {
	SectionID string   `json:"section_id"`
	TrainIDs  []string `json:"train_ids"`
	Reason    string   `json:"reason"`
}

// Result carries the schedule and diagnostics of one optimization run.
// Schedule is nil only for StatusInfeasible; TimedOut and Cancelled runs
// still return the best feasible schedule found.
type Result struct {
	Schedule   model.Schedule        `json:"schedule"`
	Status     Status                `json:"status"`
	Cost       float64               `json:"cost"`
	Violations []ConstraintViolation `json:"violations,omitempty"`
	Elapsed    time.Duration         `json:"elapsed"`
	Rounds     int                   `json:"rounds"`
}

// Solver optimizes train schedules. It is stateless between calls and safe
// for concurrent use.
type Solver struct {
	cfg Config
	log logger.Logger
}

// New creates a Solver. A nil logger is replaced by a no-op logger.
func New(cfg Config, log logger.Logger) *Solver {
	cfg.SetDefaults()
	if log == nil {
		log = logger.Nop{}
	}
	return &Solver{cfg: cfg, log: log}
}

// Config returns the effective solver configuration.
func (s *Solver) Config() Config { return s.cfg }

// HorizonLength returns the configured scheduling horizon.
func (s *Solver) HorizonLength() time.Duration { return s.cfg.Horizon() }

// Optimize produces a schedule for the given trains and sections within the
// wall-clock budget. Weights from the configuration apply; use OptimizeWith
// to override them per call. The returned error is non-nil only for invalid
// input; infeasibility is reported through the result status.
func (s *Solver) Optimize(ctx context.Context, trains []model.Train, sections []model.TrackSection, budget time.Duration) (Result, error) {
	return s.OptimizeWith(ctx, trains, sections, s.cfg.Weights, budget)
}

// OptimizeWith is Optimize with explicit objective weights.
func (s *Solver) OptimizeWith(ctx context.Context, trains []model.Train, sections []model.TrackSection, w Weights, budget time.Duration) (Result, error) {
	if err := model.ValidateScenario(trains, sections); err != nil {
		return Result{}, err
	}
	ordered := s.priorityOrder(trains)
	return s.search(ctx, ordered, sections, w, identity(len(ordered)), budget)
}

// Reoptimize warm-starts from a previous schedule: the initial ordering
// follows the previous entry times so small input deltas converge quickly.
// All invariants are re-validated from scratch regardless.
func (s *Solver) Reoptimize(ctx context.Context, prev model.Schedule, trains []model.Train, sections []model.TrackSection, budget time.Duration) (Result, error) {
	if err := model.ValidateScenario(trains, sections); err != nil {
		return Result{}, err
	}
	ordered := s.priorityOrder(trains)
	first := make(map[string]time.Time, len(prev))
	for id, entries := range prev {
		if len(entries) > 0 {
			first[id] = entries[0].Entry
		}
	}
	start := identity(len(ordered))
	sort.SliceStable(start, func(i, j int) bool {
		a, aok := first[ordered[start[i]].ID]
		b, bok := first[ordered[start[j]].ID]
		switch {
		case aok && bok:
			return a.Before(b)
		case aok:
			return true
		default:
			return false
		}
	})
	return s.search(ctx, ordered, sections, s.cfg.Weights, start, budget)
}

// priorityOrder sorts trains by effective priority descending, ID ascending.
// Ties on priority go to the lower ID, which keeps contention outcomes
// deterministic.
func (s *Solver) priorityOrder(trains []model.Train) []model.Train {
	ordered := append([]model.Train(nil), trains...)
	sort.SliceStable(ordered, func(i, j int) bool {
		pi, pj := ordered[i].EffectivePriority(), ordered[j].EffectivePriority()
		if pi != pj {
			return pi > pj
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
