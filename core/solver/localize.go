package solver

import (
	"sort"

	"github.com/railops/railsched/core/model"
)

// Localize places a small group of trains sequentially, in priority order
// with the named train forced last, and returns the resulting schedule. It
// is the constrained, localized form of the scheduler used by the resolution
// generator to estimate the delay of making one train yield; it is not a
// full re-optimization.
func (s *Solver) Localize(trains []model.Train, sections []model.TrackSection, yieldLast string) (model.Schedule, bool) {
	ordered := s.priorityOrder(trains)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ID != yieldLast && ordered[j].ID == yieldLast
	})
	p := newPlacer(s.cfg, ordered, sections)
	sched, viol := p.place(ordered, identity(len(ordered)))
	if viol != nil {
		return nil, false
	}
	return sched, true
}

// TrainDelay sums the positive entry delays of one train in a schedule.
func TrainDelay(sched model.Schedule, trainID string) (total float64) {
	for _, e := range sched[trainID] {
		if e.Requested.IsZero() {
			continue
		}
		if d := e.Entry.Sub(e.Requested).Minutes(); d > 0 {
			total += d
		}
	}
	return total
}
