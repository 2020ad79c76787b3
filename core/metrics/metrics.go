// Package metrics computes schedule quality indicators: throughput, delay
// statistics, punctuality and per-section utilization. All computations are
// pure functions of the schedule so before/after comparisons are cheap.
package metrics

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/railops/railsched/core/model"
)

// Metrics is one snapshot of schedule quality.
type Metrics struct {
	// Throughput is the number of trains completing their route within the
	// horizon, per hour of horizon.
	Throughput float64 `json:"throughput"`
	// MeanDelay is the average positive entry delay per train, in minutes.
	MeanDelay float64 `json:"mean_delay"`
	// DelayStdDev is the standard deviation of per-train delays, in minutes.
	DelayStdDev float64 `json:"delay_std_dev"`
	// OnTimePct is the share of trains whose total delay stays within the
	// on-time tolerance, in [0, 100].
	OnTimePct float64 `json:"on_time_pct"`
	// Utilization maps section ID to the fraction of the horizon during
	// which the section is occupied, in [0, 1].
	Utilization map[string]float64 `json:"utilization"`
}

// Config holds the tunables of the metrics engine.
type Config struct {
	// OnTimeToleranceMinutes is the maximum total delay still counted as
	// on time.
	OnTimeToleranceMinutes float64 `json:"on_time_tolerance_minutes"`
}

func (c *Config) SetDefaults() {
	if c.OnTimeToleranceMinutes <= 0 {
		c.OnTimeToleranceMinutes = 5
	}
}

// Compute derives the metrics of a schedule over the given horizon. Delay is
// measured per train as the sum of positive entry delays against the
// requested times stamped into the schedule.
func Compute(sched model.Schedule, sections []model.TrackSection, horizon model.Window, cfg Config) Metrics {
	cfg.SetDefaults()
	m := Metrics{Utilization: make(map[string]float64, len(sections))}
	hours := horizon.Duration().Hours()
	if hours <= 0 {
		return m
	}

	ids := sched.TrainIDs()
	delays := make([]float64, 0, len(ids))
	completed, onTime := 0, 0
	for _, id := range ids {
		entries := sched[id]
		d := trainDelay(entries)
		delays = append(delays, d)
		if d <= cfg.OnTimeToleranceMinutes {
			onTime++
		}
		if len(entries) > 0 && !entries[len(entries)-1].Exit.After(horizon.Exit) {
			completed++
		}
	}
	m.Throughput = float64(completed) / hours
	if len(delays) > 0 {
		m.MeanDelay = stat.Mean(delays, nil)
		if len(delays) > 1 {
			m.DelayStdDev = stat.StdDev(delays, nil)
		}
		m.OnTimePct = 100 * float64(onTime) / float64(len(delays))
	}

	for _, sec := range sections {
		m.Utilization[sec.ID] = utilization(sched.SectionEntries(sec.ID), horizon)
	}
	return m
}

// Diff returns after minus before, field by field. Positive deltas mean the
// after schedule is higher on that indicator.
func Diff(before, after Metrics) Metrics {
	d := Metrics{
		Throughput:  after.Throughput - before.Throughput,
		MeanDelay:   after.MeanDelay - before.MeanDelay,
		DelayStdDev: after.DelayStdDev - before.DelayStdDev,
		OnTimePct:   after.OnTimePct - before.OnTimePct,
		Utilization: make(map[string]float64),
	}
	for id, v := range after.Utilization {
		d.Utilization[id] = v - before.Utilization[id]
	}
	for id, v := range before.Utilization {
		if _, ok := after.Utilization[id]; !ok {
			d.Utilization[id] = -v
		}
	}
	return d
}

// trainDelay sums the positive entry delays of one train, in minutes.
func trainDelay(entries []model.ScheduleEntry) float64 {
	var total float64
	for _, e := range entries {
		if e.Requested.IsZero() {
			continue
		}
		if d := e.Entry.Sub(e.Requested).Minutes(); d > 0 {
			total += d
		}
	}
	return total
}

// utilization is the fraction of the horizon covered by the union of the
// occupancy intervals, clipped to the horizon. Overlapping occupancies on a
// multi-capacity section count once.
func utilization(entries []model.ScheduleEntry, horizon model.Window) float64 {
	type span struct{ start, end time.Time }
	spans := make([]span, 0, len(entries))
	for _, e := range entries {
		start, end := e.Entry, e.Exit
		if start.Before(horizon.Entry) {
			start = horizon.Entry
		}
		if end.After(horizon.Exit) {
			end = horizon.Exit
		}
		if end.After(start) {
			spans = append(spans, span{start, end})
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start.Before(spans[j].start) })
	var occupied time.Duration
	var cur span
	for i, s := range spans {
		if i == 0 || s.start.After(cur.end) {
			occupied += cur.end.Sub(cur.start)
			cur = s
			continue
		}
		if s.end.After(cur.end) {
			cur.end = s.end
		}
	}
	occupied += cur.end.Sub(cur.start)
	return occupied.Seconds() / horizon.Duration().Seconds()
}
