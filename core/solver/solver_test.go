package solver

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/railops/railsched/core/conflict"
	"github.com/railops/railsched/core/model"
)

var base = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

// section is a 10 km single-track segment cleared in 10 minutes at line speed.
func section(id string, capacity int) model.TrackSection {
	return model.TrackSection{ID: id, Capacity: capacity, LengthKm: 10, MaxSpeedKmh: 60}
}

func train(id string, prio int, offset time.Duration, route ...string) model.Train {
	req := make(map[string]model.Window, len(route))
	cursor := base.Add(offset)
	for _, sec := range route {
		req[sec] = model.Window{Entry: cursor}
		cursor = cursor.Add(10 * time.Minute)
	}
	return model.Train{
		ID:          id,
		Priority:    prio,
		Route:       route,
		Requested:   req,
		MaxSpeedKmh: 60,
	}
}

func TestOptimizeHighPriorityKeepsSlot(t *testing.T) {
	sections := []model.TrackSection{section("s1", 1)}
	trains := []model.Train{
		train("a", 5, 0, "s1"),
		train("b", 1, 5*time.Minute, "s1"),
	}
	s := New(Config{}, nil)
	res, err := s.Optimize(context.Background(), trains, sections, 0)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if res.Status != StatusOptimal {
		t.Fatalf("status: got %v want optimal", res.Status)
	}
	if got := res.Schedule["a"][0].Entry; !got.Equal(base) {
		t.Errorf("high-priority train moved: entered at %s", got)
	}
	if got := res.Schedule["b"][0].Entry; !got.Equal(base.Add(10 * time.Minute)) {
		t.Errorf("low-priority train should wait for the section: entered at %s", got)
	}
	if out := conflict.Detect(res.Schedule, sections); len(out) != 0 {
		t.Errorf("feasible result reports conflicts: %v", out)
	}
}

func TestOptimizeDeterministic(t *testing.T) {
	sections := []model.TrackSection{section("s1", 1), section("s2", 1), section("s3", 2)}
	trains := []model.Train{
		train("a", 4, 0, "s1", "s2"),
		train("b", 3, 2*time.Minute, "s1", "s3"),
		train("c", 3, 4*time.Minute, "s2", "s3"),
		train("d", 1, 6*time.Minute, "s1", "s2"),
	}
	s := New(Config{Workers: 4}, nil)
	first, err := s.Optimize(context.Background(), trains, sections, 0)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := s.Optimize(context.Background(), trains, sections, 0)
		if err != nil {
			t.Fatalf("optimize: %v", err)
		}
		if !reflect.DeepEqual(first.Schedule, again.Schedule) {
			t.Fatalf("run %d produced a different schedule", i)
		}
		if first.Cost != again.Cost {
			t.Fatalf("run %d produced a different cost: %v vs %v", i, first.Cost, again.Cost)
		}
	}
}

func TestOptimizePriorityTieGoesToLowerID(t *testing.T) {
	sections := []model.TrackSection{section("s1", 1)}
	trains := []model.Train{
		train("b", 3, 0, "s1"),
		train("a", 3, 0, "s1"),
	}
	s := New(Config{}, nil)
	res, err := s.Optimize(context.Background(), trains, sections, 0)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if !res.Schedule["a"][0].Entry.Equal(base) {
		t.Errorf("tie should go to the lower ID: a entered at %s", res.Schedule["a"][0].Entry)
	}
	if !res.Schedule["b"][0].Entry.Equal(base.Add(10 * time.Minute)) {
		t.Errorf("b should follow: entered at %s", res.Schedule["b"][0].Entry)
	}
}

func TestOptimizeCancelled(t *testing.T) {
	sections := []model.TrackSection{section("s1", 1)}
	trains := []model.Train{
		train("a", 4, 0, "s1"),
		train("b", 2, 0, "s1"),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New(Config{}, nil)
	res, err := s.Optimize(ctx, trains, sections, 0)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if res.Status != StatusCancelled {
		t.Errorf("status: got %v want cancelled", res.Status)
	}
	if res.Schedule == nil {
		t.Errorf("cancelled run should still return the schedule built so far")
	}
}

func TestOptimizeTimedOut(t *testing.T) {
	sections := []model.TrackSection{section("s1", 1)}
	trains := []model.Train{
		train("a", 4, 0, "s1"),
		train("b", 2, 0, "s1"),
	}
	s := New(Config{}, nil)
	res, err := s.Optimize(context.Background(), trains, sections, time.Nanosecond)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if res.Status != StatusTimedOut {
		t.Errorf("status: got %v want timed_out", res.Status)
	}
	if res.Schedule == nil {
		t.Errorf("timed-out run should still return the greedy schedule")
	}
}

func TestOptimizeInfeasibleZeroCapacity(t *testing.T) {
	sections := []model.TrackSection{section("s1", 0)}
	trains := []model.Train{train("a", 4, 0, "s1")}
	s := New(Config{}, nil)
	res, err := s.Optimize(context.Background(), trains, sections, 0)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if res.Status != StatusInfeasible {
		t.Fatalf("status: got %v want infeasible", res.Status)
	}
	if res.Schedule != nil {
		t.Errorf("infeasible run must not return a schedule")
	}
	if len(res.Violations) == 0 || res.Violations[0].SectionID != "s1" {
		t.Fatalf("violation should name the section: %+v", res.Violations)
	}
}

func TestOptimizeInfeasibleBeyondHorizon(t *testing.T) {
	sections := []model.TrackSection{section("s1", 1)}
	trains := []model.Train{
		train("a", 4, 0, "s1"),
		train("b", 2, 0, "s1"),
	}
	s := New(Config{HorizonMinutes: 15}, nil)
	res, err := s.Optimize(context.Background(), trains, sections, 0)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if res.Status != StatusInfeasible {
		t.Fatalf("status: got %v want infeasible", res.Status)
	}
	v := res.Violations[0]
	if v.SectionID != "s1" {
		t.Errorf("violation section: got %s", v.SectionID)
	}
	if len(v.TrainIDs) != 2 {
		t.Errorf("violation should list the contending trains: %v", v.TrainIDs)
	}
}

func TestOptimizeRecoversWhenPriorityOrderCannotPlace(t *testing.T) {
	// Placing the express first pushes the stopper past the horizon; letting
	// the stopper go first fits both within it.
	sections := []model.TrackSection{{ID: "s1", Capacity: 1, LengthKm: 10, MaxSpeedKmh: 60, Headway: 10 * time.Minute}}
	trains := []model.Train{
		train("a", 5, 10*time.Minute, "s1"),
		train("b", 1, 0, "s1"),
	}
	s := New(Config{HorizonMinutes: 35}, nil)
	res, err := s.Optimize(context.Background(), trains, sections, 0)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if res.Status == StatusInfeasible {
		t.Fatalf("a feasible ordering exists, got %v: %+v", res.Status, res.Violations)
	}
	if !res.Schedule["b"][0].Entry.Equal(base) {
		t.Errorf("b should run first: entered at %s", res.Schedule["b"][0].Entry)
	}
	if !res.Schedule["a"][0].Entry.Equal(base.Add(20 * time.Minute)) {
		t.Errorf("a should follow after the headway: entered at %s", res.Schedule["a"][0].Entry)
	}
}

func TestOptimizeSignalStop(t *testing.T) {
	sec := section("s1", 1)
	sec.Signal = model.SignalStop
	trains := []model.Train{train("a", 4, 0, "s1")}
	s := New(Config{}, nil)
	res, err := s.Optimize(context.Background(), trains, []model.TrackSection{sec}, 0)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if res.Status != StatusInfeasible {
		t.Fatalf("status: got %v want infeasible", res.Status)
	}
	if !strings.Contains(res.Violations[0].Reason, "stop") {
		t.Errorf("reason should mention the signal: %s", res.Violations[0].Reason)
	}
}

func TestOptimizeCautionBuffer(t *testing.T) {
	sec := section("s1", 1)
	sec.Signal = model.SignalCaution
	trains := []model.Train{train("a", 4, 0, "s1")}
	s := New(Config{CautionBufferMinutes: 3}, nil)
	res, err := s.Optimize(context.Background(), trains, []model.TrackSection{sec}, 0)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	e := res.Schedule["a"][0]
	if got := e.Exit.Sub(e.Entry); got != 13*time.Minute {
		t.Errorf("caution buffer not applied: occupancy %s", got)
	}
}

func TestReoptimizeMatchesColdStart(t *testing.T) {
	sections := []model.TrackSection{section("s1", 1), section("s2", 1)}
	trains := []model.Train{
		train("a", 4, 0, "s1", "s2"),
		train("b", 2, 5*time.Minute, "s1", "s2"),
	}
	s := New(Config{}, nil)
	cold, err := s.Optimize(context.Background(), trains, sections, 0)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	warm, err := s.Reoptimize(context.Background(), cold.Schedule, trains, sections, 0)
	if err != nil {
		t.Fatalf("reoptimize: %v", err)
	}
	if warm.Status != StatusOptimal && warm.Status != StatusFeasible {
		t.Fatalf("warm start status: %v", warm.Status)
	}
	if warm.Cost != cold.Cost {
		t.Errorf("warm start cost drifted: %v vs %v", warm.Cost, cold.Cost)
	}
}

func TestOptimizeRejectsUnknownSection(t *testing.T) {
	sections := []model.TrackSection{section("s1", 1)}
	trains := []model.Train{train("a", 4, 0, "s1", "ghost")}
	s := New(Config{}, nil)
	if _, err := s.Optimize(context.Background(), trains, sections, 0); err == nil {
		t.Fatalf("expected a validation error for the unknown section")
	}
}
