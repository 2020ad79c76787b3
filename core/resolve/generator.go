// Package resolve proposes corrective actions for detected conflicts. For
// each conflict it selects the train that should yield and estimates the
// delay of holding, reordering or rerouting it, ranked cheapest first.
package resolve

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/railops/railsched/core/logger"
	"github.com/railops/railsched/core/model"
	"github.com/railops/railsched/core/solver"
	"github.com/railops/railsched/core/topology"
)

// Generator builds resolution proposals. It reuses the solver's localized
// placement for delay estimates and the topology graph for reroutes.
type Generator struct {
	solver *solver.Solver
	log    logger.Logger
}

// New creates a Generator. A nil logger is replaced by a no-op logger.
func New(s *solver.Solver, log logger.Logger) *Generator {
	if log == nil {
		log = logger.Nop{}
	}
	return &Generator{solver: s, log: log}
}

// Propose returns one or more resolutions per conflict, ordered by ascending
// estimated added delay, then by ascending priority of the yielding train so
// that holding a low-priority train always ranks ahead of holding a
// high-priority one at equal cost.
func (g *Generator) Propose(conflicts []model.Conflict, trains []model.Train, sections []model.TrackSection) ([]model.Resolution, error) {
	if err := model.ValidateScenario(trains, sections); err != nil {
		return nil, err
	}
	byID := make(map[string]model.Train, len(trains))
	for _, t := range trains {
		byID[t.ID] = t
	}
	topo := topology.New(sections)

	var out []model.Resolution
	for _, c := range conflicts {
		participants := make([]model.Train, 0, len(c.TrainIDs))
		for _, id := range c.TrainIDs {
			if t, ok := byID[id]; ok {
				participants = append(participants, t)
			}
		}
		if len(participants) < 2 {
			continue
		}
		yield := yieldingTrain(participants)
		out = append(out, g.strategies(c, yield, participants, sections, topo)...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AddedDelay != out[j].AddedDelay {
			return out[i].AddedDelay < out[j].AddedDelay
		}
		pi := byID[out[i].YieldTrain].EffectivePriority()
		pj := byID[out[j].YieldTrain].EffectivePriority()
		if pi != pj {
			return pi < pj
		}
		return out[i].Strategy < out[j].Strategy
	})
	return out, nil
}

// yieldingTrain picks the train that should give way: the lowest effective
// priority, ties broken so that the lower ID keeps its slot.
func yieldingTrain(participants []model.Train) model.Train {
	yield := participants[0]
	for _, t := range participants[1:] {
		pt, py := t.EffectivePriority(), yield.EffectivePriority()
		if pt < py || (pt == py && t.ID > yield.ID) {
			yield = t
		}
	}
	return yield
}

// strategies emits the applicable proposals for one conflict in the fixed
// preference order hold, reorder, reroute.
func (g *Generator) strategies(c model.Conflict, yield model.Train, participants []model.Train, sections []model.TrackSection, topo *topology.Graph) []model.Resolution {
	var out []model.Resolution

	holdDelay, ok := g.holdDelay(yield, participants, sections)
	if ok {
		out = append(out, model.Resolution{
			ID:         uuid.NewString(),
			Conflict:   c,
			Strategy:   model.StrategyHold,
			YieldTrain: yield.ID,
			AddedDelay: holdDelay,
			Score:      score(holdDelay, yield),
		})
	}

	// Resequencing costs the yielder the contended window: the missing
	// separation for a headway shortfall, the overlap that must drain for a
	// capacity overage.
	reorderDelay := c.Window.Duration()
	out = append(out, model.Resolution{
		ID:         uuid.NewString(),
		Conflict:   c,
		Strategy:   model.StrategyReorder,
		YieldTrain: yield.ID,
		AddedDelay: reorderDelay,
		Score:      score(reorderDelay, yield),
	})

	if alt, ok := topo.Alternate(yield.Route, c.SectionID); ok {
		extraKm := topo.RouteLength(alt) - topo.RouteLength(yield.Route)
		var d time.Duration
		if extraKm > 0 && yield.MaxSpeedKmh > 0 {
			d = time.Duration(extraKm / yield.MaxSpeedKmh * float64(time.Hour))
		}
		out = append(out, model.Resolution{
			ID:         uuid.NewString(),
			Conflict:   c,
			Strategy:   model.StrategyReroute,
			YieldTrain: yield.ID,
			AddedDelay: d,
			Score:      score(d, yield),
			AltRoute:   alt,
		})
	}
	return out
}

// holdDelay estimates the cost of holding the yielder until the contended
// window clears by re-placing only the affected trains, yielder last.
func (g *Generator) holdDelay(yield model.Train, participants []model.Train, sections []model.TrackSection) (time.Duration, bool) {
	alone, ok := g.solver.Localize([]model.Train{yield}, sections, yield.ID)
	if !ok {
		return 0, false
	}
	baseline := solver.TrainDelay(alone, yield.ID)
	sched, ok := g.solver.Localize(participants, sections, yield.ID)
	if !ok {
		g.log.Debugf("localized placement failed for train %s", yield.ID)
		return 0, false
	}
	d := solver.TrainDelay(sched, yield.ID) - baseline
	if d < 0 {
		d = 0
	}
	return time.Duration(d * float64(time.Minute)), true
}

// score is the priority-respecting ranking value: cheaper delays and
// lower-priority yielders rank lower (better).
func score(d time.Duration, yield model.Train) float64 {
	return d.Minutes() + float64(yield.EffectivePriority())
}
