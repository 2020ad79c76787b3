// Package conflict detects capacity and headway violations in a candidate
// schedule. Detection is a pure function of its inputs: it accepts possibly
// infeasible schedules and never mutates them.
package conflict

import (
	"sort"
	"strings"
	"time"

	"github.com/railops/railsched/core/model"
)

// Detect returns every capacity or headway violation in the schedule,
// ordered by section then window start. Per section it sorts the occupancy
// intervals and sweeps them once, so the work is O(n log n) in the number of
// occupants.
func Detect(sched model.Schedule, sections []model.TrackSection) []model.Conflict {
	var out []model.Conflict
	for _, sec := range sortedSections(sections) {
		entries := sched.SectionEntries(sec.ID)
		if len(entries) < 2 {
			continue
		}
		out = append(out, capacityConflicts(sec, entries)...)
		out = append(out, headwayConflicts(sec, entries)...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SectionID != out[j].SectionID {
			return out[i].SectionID < out[j].SectionID
		}
		return out[i].Window.Entry.Before(out[j].Window.Entry)
	})
	return out
}

// capacityConflicts sweeps the entry-sorted intervals with an active set and
// emits one conflict per over-capacity episode. The conflict window is the
// span during which the group exceeds capacity; the same group colliding
// again later in the horizon is a new episode and is reported again.
func capacityConflicts(sec model.TrackSection, entries []model.ScheduleEntry) []model.Conflict {
	var out []model.Conflict
	seen := make(map[string]bool)
	var active []model.ScheduleEntry
	for _, e := range entries {
		next := active[:0]
		for _, a := range active {
			if a.Exit.After(e.Entry) {
				next = append(next, a)
			}
		}
		active = append(next, e)
		if len(active) <= sec.Capacity {
			continue
		}
		group := append([]model.ScheduleEntry(nil), active...)
		win := overlapWindow(group)
		ids := trainIDs(group)
		key := win.Entry.Format(time.RFC3339Nano) + "|" + strings.Join(ids, "|")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, model.Conflict{
			SectionID: sec.ID,
			TrainIDs:  ids,
			Window:    win,
			Kind:      model.CapacityExceeded,
			Severity:  severity(win.Duration(), group),
		})
	}
	return out
}

// headwayConflicts compares every occupancy against each later one that
// starts at or after its exit: a gap below the section headway is a
// violation even though capacity is respected. On multi-capacity sections
// the offending pair need not be adjacent in entry order, so each occupancy
// scans forward until the first follower clear of its headway window.
func headwayConflicts(sec model.TrackSection, entries []model.ScheduleEntry) []model.Conflict {
	if sec.Headway <= 0 {
		return nil
	}
	var out []model.Conflict
	for i, e := range entries {
		for _, next := range entries[i+1:] {
			gap := next.Entry.Sub(e.Exit)
			if gap < 0 {
				continue
			}
			if gap >= sec.Headway {
				break
			}
			pair := []model.ScheduleEntry{e, next}
			out = append(out, model.Conflict{
				SectionID: sec.ID,
				TrainIDs:  trainIDs(pair),
				Window:    model.Window{Entry: e.Exit, Exit: next.Entry},
				Kind:      model.HeadwayViolation,
				Severity:  severity(sec.Headway-gap, pair),
			})
		}
	}
	return out
}

// severity weighs the violation duration in minutes by the sum of the
// priorities of the trains involved.
func severity(d time.Duration, group []model.ScheduleEntry) float64 {
	sum := 0
	for _, e := range group {
		sum += e.Priority
	}
	return d.Minutes() * float64(sum)
}

// overlapWindow is the intersection of the group's occupancy intervals.
func overlapWindow(group []model.ScheduleEntry) model.Window {
	win := group[0].Window()
	for _, e := range group[1:] {
		if e.Entry.After(win.Entry) {
			win.Entry = e.Entry
		}
		if e.Exit.Before(win.Exit) {
			win.Exit = e.Exit
		}
	}
	return win
}

func trainIDs(group []model.ScheduleEntry) []string {
	ids := make([]string, 0, len(group))
	for _, e := range group {
		ids = append(ids, e.TrainID)
	}
	sort.Strings(ids)
	return ids
}

func sortedSections(sections []model.TrackSection) []model.TrackSection {
	out := model.CloneSections(sections)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
