package solver

import (
	"fmt"
	"sort"
	"time"

	"github.com/railops/railsched/core/model"
)

// occupancy is one committed reservation on a section during placement.
type occupancy struct {
	win   model.Window
	train string
}

// placer builds a schedule for a fixed train ordering. It owns a per-section
// occupancy ledger and is discarded after one construction.
type placer struct {
	cfg   Config
	secs  map[string]model.TrackSection
	epoch time.Time
	end   time.Time
	led   map[string][]occupancy
}

func newPlacer(cfg Config, trains []model.Train, sections []model.TrackSection) *placer {
	var epoch time.Time
	for _, t := range trains {
		for _, sec := range t.Route {
			if req, ok := t.RequestedEntry(sec); ok {
				if epoch.IsZero() || req.Before(epoch) {
					epoch = req
				}
			}
		}
	}
	return &placer{
		cfg:   cfg,
		secs:  model.SectionIndex(sections),
		epoch: epoch,
		end:   epoch.Add(cfg.Horizon()),
		led:   make(map[string][]occupancy),
	}
}

// place schedules the trains one by one in the order given by perm, each at
// its earliest feasible times against the reservations already committed.
// Placing in priority order therefore hands the higher-priority train the
// earlier slot whenever two trains contend at a tied cost.
func (p *placer) place(trains []model.Train, perm []int) (model.Schedule, []ConstraintViolation) {
	sched := make(model.Schedule, len(trains))
	var violations []ConstraintViolation
	for _, idx := range perm {
		t := trains[idx]
		entries, v := p.placeTrain(t)
		if v != nil {
			violations = append(violations, *v)
			continue
		}
		sched[t.ID] = entries
		for _, e := range entries {
			p.commit(e.SectionID, occupancy{win: e.Window(), train: e.TrainID})
		}
	}
	if len(violations) > 0 {
		return nil, violations
	}
	return sched, nil
}

func (p *placer) placeTrain(t model.Train) ([]model.ScheduleEntry, *ConstraintViolation) {
	entries := make([]model.ScheduleEntry, 0, len(t.Route))
	cursor := p.epoch
	prio := t.EffectivePriority()
	for _, secID := range t.Route {
		sec := p.secs[secID]
		if sec.Capacity <= 0 {
			return nil, &ConstraintViolation{SectionID: secID, TrainIDs: []string{t.ID},
				Reason: fmt.Sprintf("section %s has no capacity for train %s", secID, t.ID)}
		}
		if sec.Signal == model.SignalStop {
			return nil, &ConstraintViolation{SectionID: secID, TrainIDs: []string{t.ID},
				Reason: fmt.Sprintf("entry signal for section %s is at stop", secID)}
		}
		dur := sec.TravelTime(t.MaxSpeedKmh)
		if sec.Signal == model.SignalCaution {
			dur += time.Duration(p.cfg.CautionBufferMinutes) * time.Minute
		}
		lower := cursor
		var requested time.Time
		if req, ok := t.RequestedEntry(secID); ok {
			requested = req
			if req.After(lower) {
				lower = req
			}
		}
		entry, ok := p.earliest(sec, lower, dur)
		if !ok {
			ids := append(p.occupants(secID), t.ID)
			sort.Strings(ids)
			return nil, &ConstraintViolation{SectionID: secID, TrainIDs: ids,
				Reason: fmt.Sprintf("section %s capacity %d leaves no slot for train %s within the horizon", secID, sec.Capacity, t.ID)}
		}
		entries = append(entries, model.ScheduleEntry{
			TrainID:   t.ID,
			SectionID: secID,
			Entry:     entry,
			Exit:      entry.Add(dur),
			Requested: requested,
			Priority:  prio,
		})
		cursor = entry.Add(dur)
	}
	return entries, nil
}

// earliest finds the first entry time at or after lower where the interval
// [entry, entry+dur) respects the section capacity and headway against the
// committed occupancies. Candidates only ever move forward, jumping to the
// first instant a blocking reservation clears, so the scan terminates at the
// horizon.
func (p *placer) earliest(sec model.TrackSection, lower time.Time, dur time.Duration) (time.Time, bool) {
	occs := p.led[sec.ID]
	cand := lower
	for !cand.After(p.end) {
		if blocker, ok := p.blocked(occs, sec, cand, dur); ok {
			next := blocker.win.Exit.Add(sec.Headway)
			if !next.After(cand) {
				next = cand.Add(time.Minute)
			}
			cand = next
			continue
		}
		if cand.Add(dur).After(p.end) {
			return time.Time{}, false
		}
		return cand, true
	}
	return time.Time{}, false
}

// blocked reports the first occupancy preventing the candidate interval:
// either capacity would be exceeded at some instant, or the gap to a
// non-overlapping neighbour is below the section headway.
func (p *placer) blocked(occs []occupancy, sec model.TrackSection, cand time.Time, dur time.Duration) (occupancy, bool) {
	win := model.Window{Entry: cand, Exit: cand.Add(dur)}
	var overlapping []occupancy
	for _, o := range occs {
		if o.win.Overlaps(win) {
			overlapping = append(overlapping, o)
			continue
		}
		if !o.win.Exit.After(cand) && cand.Sub(o.win.Exit) < sec.Headway {
			return o, true
		}
		if !o.win.Entry.Before(win.Exit) && o.win.Entry.Sub(win.Exit) < sec.Headway {
			return o, true
		}
	}
	if len(overlapping) >= sec.Capacity {
		if o, ok := capacityBlocker(overlapping, win, sec.Capacity); ok {
			return o, true
		}
	}
	return occupancy{}, false
}

// capacityBlocker checks the exact concurrency of the overlapping
// reservations inside win and, when adding one more would exceed capacity,
// returns the overlapping occupancy that clears first.
func capacityBlocker(overlapping []occupancy, win model.Window, capacity int) (occupancy, bool) {
	type event struct {
		at    time.Time
		delta int
	}
	events := make([]event, 0, 2*len(overlapping))
	for _, o := range overlapping {
		start, end := o.win.Entry, o.win.Exit
		if start.Before(win.Entry) {
			start = win.Entry
		}
		if end.After(win.Exit) {
			end = win.Exit
		}
		events = append(events, event{at: start, delta: 1}, event{at: end, delta: -1})
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].at.Equal(events[j].at) {
			return events[i].at.Before(events[j].at)
		}
		return events[i].delta < events[j].delta // exits before entries at the same instant
	})
	max, cur := 0, 0
	for _, ev := range events {
		cur += ev.delta
		if cur > max {
			max = cur
		}
	}
	if max+1 <= capacity {
		return occupancy{}, false
	}
	first := overlapping[0]
	for _, o := range overlapping[1:] {
		if o.win.Exit.Before(first.win.Exit) {
			first = o
		}
	}
	return first, true
}

func (p *placer) commit(sectionID string, o occupancy) {
	occs := append(p.led[sectionID], o)
	sort.Slice(occs, func(i, j int) bool {
		if !occs[i].win.Entry.Equal(occs[j].win.Entry) {
			return occs[i].win.Entry.Before(occs[j].win.Entry)
		}
		return occs[i].train < occs[j].train
	})
	p.led[sectionID] = occs
}

func (p *placer) occupants(sectionID string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, o := range p.led[sectionID] {
		if !seen[o.train] {
			seen[o.train] = true
			out = append(out, o.train)
		}
	}
	return out
}
