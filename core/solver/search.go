package solver

import (
	"context"
	"sync"
	"time"

	"github.com/railops/railsched/core/model"
)

const costEpsilon = 1e-9

// scheduleCost is the weighted objective: delay minutes against requested
// entries, minus a reward per train completed within the horizon.
func scheduleCost(sched model.Schedule, w Weights, end time.Time) float64 {
	var delayMin float64
	completed := 0
	for _, id := range sched.TrainIDs() {
		entries := sched[id]
		for _, e := range entries {
			if !e.Requested.IsZero() {
				delayMin += e.Entry.Sub(e.Requested).Minutes()
			}
		}
		if len(entries) > 0 && !entries[len(entries)-1].Exit.After(end) {
			completed++
		}
	}
	return w.Delay*delayMin - w.Throughput*float64(completed)
}

type evaluation struct {
	perm  []int
	sched model.Schedule
	cost  float64
	viol  []ConstraintViolation
}

// search runs the bounded local search: starting from the given ordering it
// repeatedly evaluates adjacent transpositions, keeping the cheapest
// improving neighbour. The winner of each round is chosen deterministically
// (lowest cost, then lowest neighbour index) regardless of worker count.
// A start ordering that fails to place is retried once across its adjacent
// transpositions; infeasibility is reported only after those fail too.
func (s *Solver) search(ctx context.Context, trains []model.Train, sections []model.TrackSection, w Weights, start []int, budget time.Duration) (Result, error) {
	t0 := time.Now()
	if budget <= 0 {
		budget = s.cfg.DefaultBudget()
	}
	deadline := t0.Add(budget)

	eval := func(perm []int) evaluation {
		p := newPlacer(s.cfg, trains, sections)
		sched, viol := p.place(trains, perm)
		ev := evaluation{perm: perm, sched: sched, viol: viol}
		if viol == nil {
			ev.cost = scheduleCost(sched, w, p.end)
		}
		return ev
	}

	cur := eval(start)
	if cur.viol != nil {
		alt, ok := recoverOrdering(cur.perm, eval)
		if !ok {
			s.log.Warnf("no feasible schedule for %d trains: %s", len(trains), cur.viol[0].Reason)
			return Result{Status: StatusInfeasible, Violations: cur.viol, Elapsed: time.Since(t0)}, nil
		}
		s.log.Debugf("start ordering infeasible, recovered by transposing neighbours")
		cur = alt
	}

	tolerance := w.Delay * s.cfg.PriorityToleranceMinutes
	status := StatusFeasible
	rounds := 0
	for {
		if ctx.Err() != nil {
			status = StatusCancelled
			break
		}
		if !time.Now().Before(deadline) {
			status = StatusTimedOut
			break
		}
		if s.cfg.MaxRounds > 0 && rounds >= s.cfg.MaxRounds {
			status = StatusFeasible
			break
		}
		if len(cur.perm) < 2 {
			status = StatusOptimal
			break
		}
		next, ok := s.bestNeighbour(trains, cur, eval, tolerance)
		if !ok {
			status = StatusOptimal
			break
		}
		s.log.Debugf("round %d improved cost %.3f -> %.3f", rounds, cur.cost, next.cost)
		cur = next
		rounds++
	}

	return Result{
		Schedule: cur.sched,
		Status:   status,
		Cost:     cur.cost,
		Elapsed:  time.Since(t0),
		Rounds:   rounds,
	}, nil
}

// recoverOrdering retries the adjacent transpositions of an ordering that
// failed to place and returns the cheapest feasible one (lowest cost, then
// lowest transposition index). Orderings further than one swap away are not
// explored.
func recoverOrdering(perm []int, eval func([]int) evaluation) (evaluation, bool) {
	var best evaluation
	found := false
	for i := 0; i < len(perm)-1; i++ {
		next := append([]int(nil), perm...)
		next[i], next[i+1] = next[i+1], next[i]
		ev := eval(next)
		if ev.viol != nil {
			continue
		}
		if !found || ev.cost < best.cost-costEpsilon {
			best, found = ev, true
		}
	}
	return best, found
}

// bestNeighbour evaluates every adjacent transposition of the current
// ordering, in parallel when configured, and returns the accepted neighbour
// with the lowest cost. A swap that moves a lower-priority train ahead of a
// higher-priority one must improve the cost by more than the configured
// tolerance; other swaps only need strict improvement.
func (s *Solver) bestNeighbour(trains []model.Train, cur evaluation, eval func([]int) evaluation, tolerance float64) (evaluation, bool) {
	n := len(cur.perm) - 1
	results := make([]evaluation, n)
	demotion := make([]bool, n)
	jobs := make(chan int)
	workers := s.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				perm := append([]int(nil), cur.perm...)
				perm[i], perm[i+1] = perm[i+1], perm[i]
				demotion[i] = trains[perm[i]].EffectivePriority() < trains[perm[i+1]].EffectivePriority()
				results[i] = eval(perm)
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	bestIdx := -1
	for i, r := range results {
		if r.viol != nil {
			continue
		}
		required := costEpsilon
		if demotion[i] {
			required = tolerance + costEpsilon
		}
		if cur.cost-r.cost <= required {
			continue
		}
		if bestIdx < 0 || r.cost < results[bestIdx].cost-costEpsilon {
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return evaluation{}, false
	}
	return results[bestIdx], true
}
