package model

import (
	"fmt"
	"sort"
	"time"
)

// ScheduleEntry is one planned occupancy of a section by a train. Requested
// and Priority are stamped by the scheduler so that conflict detection and
// metrics can operate on a schedule without the originating train set.
type ScheduleEntry struct {
	TrainID   string    `json:"train_id"`
	SectionID string    `json:"section_id"`
	Entry     time.Time `json:"entry"`
	Exit      time.Time `json:"exit"`
	Requested time.Time `json:"requested,omitempty"`
	Priority  int       `json:"priority"`
}

// Window returns the occupancy interval of the entry.
func (e ScheduleEntry) Window() Window { return Window{Entry: e.Entry, Exit: e.Exit} }

// Schedule maps a train ID to its ordered section occupancies. A schedule is
// produced fresh by each optimization run and never mutated in place.
type Schedule map[string][]ScheduleEntry

// Clone returns a deep copy of the schedule.
func (s Schedule) Clone() Schedule {
	cp := make(Schedule, len(s))
	for id, entries := range s {
		cp[id] = append([]ScheduleEntry(nil), entries...)
	}
	return cp
}

// TrainIDs returns the scheduled train IDs in deterministic order.
func (s Schedule) TrainIDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SectionEntries collects every entry touching the given section, ordered by
// entry time then train ID.
func (s Schedule) SectionEntries(sectionID string) []ScheduleEntry {
	var out []ScheduleEntry
	for _, id := range s.TrainIDs() {
		for _, e := range s[id] {
			if e.SectionID == sectionID {
				out = append(out, e)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Entry.Equal(out[j].Entry) {
			return out[i].Entry.Before(out[j].Entry)
		}
		return out[i].TrainID < out[j].TrainID
	})
	return out
}

// Start returns the earliest entry time in the schedule, or the zero time for
// an empty schedule.
func (s Schedule) Start() time.Time {
	var start time.Time
	for _, entries := range s {
		for _, e := range entries {
			if start.IsZero() || e.Entry.Before(start) {
				start = e.Entry
			}
		}
	}
	return start
}

// Validate checks per-train time monotonicity and contiguity. Route-order
// agreement with the originating trains is checked by the engine, which has
// access to both.
func (s Schedule) Validate() error {
	for _, id := range s.TrainIDs() {
		entries := s[id]
		for i, e := range entries {
			if e.TrainID != id {
				return &ValidationError{Entity: "schedule", ID: id, Reason: fmt.Sprintf("entry %d belongs to train %s", i, e.TrainID)}
			}
			if !e.Exit.After(e.Entry) {
				return &ValidationError{Entity: "schedule", ID: id, Reason: fmt.Sprintf("entry for %s has non-positive duration", e.SectionID)}
			}
			if i > 0 && e.Entry.Before(entries[i-1].Exit) {
				return &ValidationError{Entity: "schedule", ID: id, Reason: fmt.Sprintf("entry for %s starts before previous section is cleared", e.SectionID)}
			}
		}
	}
	return nil
}
