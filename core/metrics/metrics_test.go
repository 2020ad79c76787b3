package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/railops/railsched/core/model"
)

var base = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func entry(train, section string, start, end time.Duration, requested time.Duration) model.ScheduleEntry {
	return model.ScheduleEntry{
		TrainID:   train,
		SectionID: section,
		Entry:     base.Add(start),
		Exit:      base.Add(end),
		Requested: base.Add(requested),
	}
}

func TestCompute(t *testing.T) {
	sections := []model.TrackSection{
		{ID: "s1", Capacity: 1, LengthKm: 10},
		{ID: "s2", Capacity: 1, LengthKm: 10},
	}
	sched := model.Schedule{
		"a": {entry("a", "s1", 0, 10*time.Minute, 0)},
		"b": {entry("b", "s1", 20*time.Minute, 30*time.Minute, 10*time.Minute)},
	}
	horizon := model.Window{Entry: base, Exit: base.Add(time.Hour)}
	m := Compute(sched, sections, horizon, Config{OnTimeToleranceMinutes: 5})

	if m.Throughput != 2 {
		t.Errorf("throughput: got %v want 2 per hour", m.Throughput)
	}
	if m.MeanDelay != 5 {
		t.Errorf("mean delay: got %v want 5", m.MeanDelay)
	}
	if m.OnTimePct != 50 {
		t.Errorf("on-time: got %v want 50", m.OnTimePct)
	}
	if m.DelayStdDev <= 0 {
		t.Errorf("stddev should be positive for uneven delays: %v", m.DelayStdDev)
	}
	// s1 is occupied for 20 of 60 minutes, s2 never.
	if got := m.Utilization["s1"]; math.Abs(got-1.0/3) > 1e-9 {
		t.Errorf("s1 utilization: got %v", got)
	}
	if got := m.Utilization["s2"]; got != 0 {
		t.Errorf("s2 utilization: got %v want 0", got)
	}
}

func TestComputeOverlappingOccupanciesCountOnce(t *testing.T) {
	sections := []model.TrackSection{{ID: "s1", Capacity: 2, LengthKm: 10}}
	sched := model.Schedule{
		"a": {entry("a", "s1", 0, 30*time.Minute, 0)},
		"b": {entry("b", "s1", 15*time.Minute, 45*time.Minute, 15*time.Minute)},
	}
	horizon := model.Window{Entry: base, Exit: base.Add(time.Hour)}
	m := Compute(sched, sections, horizon, Config{})
	if got := m.Utilization["s1"]; math.Abs(got-0.75) > 1e-9 {
		t.Errorf("union of occupancies should span 45 minutes: got %v", got)
	}
}

func TestComputeEmptySchedule(t *testing.T) {
	horizon := model.Window{Entry: base, Exit: base.Add(time.Hour)}
	m := Compute(model.Schedule{}, nil, horizon, Config{})
	if m.Throughput != 0 || m.MeanDelay != 0 || m.OnTimePct != 0 {
		t.Errorf("empty schedule should yield zero metrics: %+v", m)
	}
}

func TestDiff(t *testing.T) {
	before := Metrics{Throughput: 2, MeanDelay: 5, OnTimePct: 50, Utilization: map[string]float64{"s1": 0.5, "s2": 0.2}}
	after := Metrics{Throughput: 1, MeanDelay: 9, OnTimePct: 25, Utilization: map[string]float64{"s1": 0.7}}
	d := Diff(before, after)
	if d.Throughput != -1 {
		t.Errorf("throughput delta: got %v", d.Throughput)
	}
	if d.MeanDelay != 4 {
		t.Errorf("delay delta: got %v", d.MeanDelay)
	}
	if math.Abs(d.Utilization["s1"]-0.2) > 1e-9 {
		t.Errorf("s1 delta: got %v", d.Utilization["s1"])
	}
	if d.Utilization["s2"] != -0.2 {
		t.Errorf("removed section should show the negative delta: got %v", d.Utilization["s2"])
	}
}
