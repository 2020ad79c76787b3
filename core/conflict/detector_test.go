package conflict

import (
	"testing"
	"time"

	"github.com/railops/railsched/core/model"
)

var base = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func entry(train, section string, start, end time.Duration, prio int) model.ScheduleEntry {
	return model.ScheduleEntry{
		TrainID:   train,
		SectionID: section,
		Entry:     base.Add(start),
		Exit:      base.Add(end),
		Priority:  prio,
	}
}

func TestDetectCapacityExceeded(t *testing.T) {
	sections := []model.TrackSection{{ID: "s1", Capacity: 1, LengthKm: 10}}
	sched := model.Schedule{
		"a": {entry("a", "s1", 0, 10*time.Minute, 4)},
		"b": {entry("b", "s1", 5*time.Minute, 15*time.Minute, 3)},
	}
	out := Detect(sched, sections)
	if len(out) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(out))
	}
	c := out[0]
	if c.Kind != model.CapacityExceeded {
		t.Errorf("kind: got %v", c.Kind)
	}
	if c.SectionID != "s1" {
		t.Errorf("section: got %s", c.SectionID)
	}
	if len(c.TrainIDs) != 2 || c.TrainIDs[0] != "a" || c.TrainIDs[1] != "b" {
		t.Errorf("trains: got %v", c.TrainIDs)
	}
	// Overlap is 5 minutes, priorities sum to 7.
	if c.Severity != 35 {
		t.Errorf("severity: got %v want 35", c.Severity)
	}
	if got := c.Window.Duration(); got != 5*time.Minute {
		t.Errorf("window: got %s want 5m", got)
	}
}

func TestDetectHeadwayViolation(t *testing.T) {
	sections := []model.TrackSection{{ID: "s1", Capacity: 2, LengthKm: 10, Headway: 4 * time.Minute}}
	sched := model.Schedule{
		"a": {entry("a", "s1", 0, 10*time.Minute, 2)},
		"b": {entry("b", "s1", 12*time.Minute, 20*time.Minute, 2)},
	}
	out := Detect(sched, sections)
	if len(out) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(out))
	}
	if out[0].Kind != model.HeadwayViolation {
		t.Errorf("kind: got %v", out[0].Kind)
	}
	// Gap is 2 minutes against a 4 minute headway, shortfall 2m, priorities 4.
	if out[0].Severity != 8 {
		t.Errorf("severity: got %v want 8", out[0].Severity)
	}
}

func TestDetectHeadwayBetweenNonAdjacentEntries(t *testing.T) {
	// On the double track a short occupancy sorts between two entries whose
	// mutual gap still violates the headway.
	sections := []model.TrackSection{{ID: "s1", Capacity: 2, LengthKm: 10, Headway: 2 * time.Minute}}
	sched := model.Schedule{
		"a": {entry("a", "s1", 0, 10*time.Minute, 2)},
		"b": {entry("b", "s1", 0, 3*time.Minute, 2)},
		"c": {entry("c", "s1", 11*time.Minute, 20*time.Minute, 2)},
	}
	out := Detect(sched, sections)
	if len(out) != 1 {
		t.Fatalf("expected 1 conflict, got %d: %v", len(out), out)
	}
	c := out[0]
	if c.Kind != model.HeadwayViolation {
		t.Errorf("kind: got %v", c.Kind)
	}
	if len(c.TrainIDs) != 2 || c.TrainIDs[0] != "a" || c.TrainIDs[1] != "c" {
		t.Errorf("trains: got %v want [a c]", c.TrainIDs)
	}
	// Gap is 1 minute against a 2 minute headway, shortfall 1m, priorities 4.
	if c.Severity != 4 {
		t.Errorf("severity: got %v want 4", c.Severity)
	}
}

func TestDetectRepeatedCapacityEpisodes(t *testing.T) {
	// The same pair collides twice on the single track; both episodes count.
	sections := []model.TrackSection{{ID: "s1", Capacity: 1, LengthKm: 10}}
	sched := model.Schedule{
		"a": {entry("a", "s1", 0, 10*time.Minute, 2), entry("a", "s1", 20*time.Minute, 30*time.Minute, 2)},
		"b": {entry("b", "s1", 5*time.Minute, 15*time.Minute, 2), entry("b", "s1", 25*time.Minute, 35*time.Minute, 2)},
	}
	out := Detect(sched, sections)
	if len(out) != 2 {
		t.Fatalf("expected 2 conflicts, got %d: %v", len(out), out)
	}
	for _, c := range out {
		if c.Kind != model.CapacityExceeded {
			t.Errorf("kind: got %v", c.Kind)
		}
	}
	if !out[0].Window.Entry.Equal(base.Add(5 * time.Minute)) {
		t.Errorf("first episode window starts at %s", out[0].Window.Entry)
	}
	if !out[1].Window.Entry.Equal(base.Add(25 * time.Minute)) {
		t.Errorf("second episode window starts at %s", out[1].Window.Entry)
	}
}

func TestDetectHeadwayRespected(t *testing.T) {
	sections := []model.TrackSection{{ID: "s1", Capacity: 2, LengthKm: 10, Headway: 4 * time.Minute}}
	sched := model.Schedule{
		"a": {entry("a", "s1", 0, 10*time.Minute, 2)},
		"b": {entry("b", "s1", 14*time.Minute, 20*time.Minute, 2)},
	}
	if out := Detect(sched, sections); len(out) != 0 {
		t.Fatalf("expected no conflicts, got %v", out)
	}
}

func TestDetectWithinCapacityOverlap(t *testing.T) {
	sections := []model.TrackSection{{ID: "s1", Capacity: 2, LengthKm: 10}}
	sched := model.Schedule{
		"a": {entry("a", "s1", 0, 10*time.Minute, 2)},
		"b": {entry("b", "s1", 5*time.Minute, 15*time.Minute, 2)},
	}
	if out := Detect(sched, sections); len(out) != 0 {
		t.Fatalf("double-track section should absorb the overlap, got %v", out)
	}
}

func TestDetectOrdering(t *testing.T) {
	sections := []model.TrackSection{
		{ID: "s2", Capacity: 1, LengthKm: 10},
		{ID: "s1", Capacity: 1, LengthKm: 10},
	}
	sched := model.Schedule{
		"a": {entry("a", "s2", 0, 10*time.Minute, 1), entry("a", "s1", 10*time.Minute, 20*time.Minute, 1)},
		"b": {entry("b", "s2", 5*time.Minute, 15*time.Minute, 1)},
		"c": {entry("c", "s1", 12*time.Minute, 22*time.Minute, 1)},
	}
	out := Detect(sched, sections)
	if len(out) != 2 {
		t.Fatalf("expected 2 conflicts, got %d", len(out))
	}
	if out[0].SectionID != "s1" || out[1].SectionID != "s2" {
		t.Errorf("conflicts not ordered by section: %v then %v", out[0].SectionID, out[1].SectionID)
	}
}
