package model

import (
	"fmt"
	"time"
)

// TrainType classifies a train service. The type carries a default priority
// so that callers only need to set Priority explicitly to override it.
type TrainType int

const (
	Express TrainType = iota
	Local
	Freight
	Maintenance
)

// String returns a human-readable representation of the train type.
func (t TrainType) String() string {
	switch t {
	case Express:
		return "express"
	case Local:
		return "local"
	case Freight:
		return "freight"
	case Maintenance:
		return "maintenance"
	default:
		return "unknown"
	}
}

// DefaultPriority maps each train type to its default precedence weight.
// Higher values take precedence when trains contend for a section.
func (t TrainType) DefaultPriority() int {
	switch t {
	case Express:
		return 4
	case Local:
		return 3
	case Freight:
		return 2
	case Maintenance:
		return 1
	default:
		return 0
	}
}

// ParseTrainType converts a configuration string into a TrainType.
func ParseTrainType(s string) (TrainType, error) {
	switch s {
	case "express":
		return Express, nil
	case "local":
		return Local, nil
	case "freight":
		return Freight, nil
	case "maintenance":
		return Maintenance, nil
	default:
		return 0, fmt.Errorf("unknown train type %q", s)
	}
}

// Window is a half-open [Entry, Exit) occupancy interval on a section.
type Window struct {
	Entry time.Time `json:"entry"`
	Exit  time.Time `json:"exit"`
}

// Duration returns the window length.
func (w Window) Duration() time.Duration { return w.Exit.Sub(w.Entry) }

// Overlaps reports whether two half-open windows intersect.
func (w Window) Overlaps(o Window) bool {
	return w.Entry.Before(o.Exit) && o.Entry.Before(w.Exit)
}

// Position locates a train on the network as a section plus an offset from
// the section's From endpoint.
type Position struct {
	Section  string  `json:"section"`
	OffsetKm float64 `json:"offset_km"`
}

// Train describes a single train movement request. Instances are treated as
// immutable for the duration of an optimization run.
type Train struct {
	ID          string            `json:"id"`
	Type        TrainType         `json:"type"`
	Priority    int               `json:"priority"` // 0 means use the type default
	Route       []string          `json:"route"`
	Requested   map[string]Window `json:"requested,omitempty"`
	Position    Position          `json:"position"`
	MaxSpeedKmh float64           `json:"max_speed_kmh"`
}

// EffectivePriority returns the explicit priority when set, falling back to
// the type default.
func (t Train) EffectivePriority() int {
	if t.Priority > 0 {
		return t.Priority
	}
	return t.Type.DefaultPriority()
}

// RequestedEntry returns the requested entry time for a section, if any.
func (t Train) RequestedEntry(section string) (time.Time, bool) {
	w, ok := t.Requested[section]
	if !ok || w.Entry.IsZero() {
		return time.Time{}, false
	}
	return w.Entry, true
}

// Validate checks that the train definition is internally consistent.
func (t Train) Validate() error {
	if t.ID == "" {
		return &ValidationError{Entity: "train", Reason: "missing id"}
	}
	if len(t.Route) == 0 {
		return &ValidationError{Entity: "train", ID: t.ID, Reason: "empty route"}
	}
	if t.MaxSpeedKmh <= 0 {
		return &ValidationError{Entity: "train", ID: t.ID, Reason: "max speed must be positive"}
	}
	seen := make(map[string]bool, len(t.Route))
	for _, sec := range t.Route {
		if seen[sec] {
			return &ValidationError{Entity: "train", ID: t.ID, Reason: fmt.Sprintf("section %s appears twice in route", sec)}
		}
		seen[sec] = true
	}
	var prev time.Time
	for _, sec := range t.Route {
		w, ok := t.Requested[sec]
		if !ok {
			continue
		}
		if !w.Exit.IsZero() && !w.Exit.After(w.Entry) {
			return &ValidationError{Entity: "train", ID: t.ID, Reason: fmt.Sprintf("requested window on %s has exit before entry", sec)}
		}
		if !prev.IsZero() && w.Entry.Before(prev) {
			return &ValidationError{Entity: "train", ID: t.ID, Reason: fmt.Sprintf("requested entry on %s is earlier than previous section", sec)}
		}
		prev = w.Entry
	}
	return nil
}

// Clone returns a deep copy of the train.
func (t Train) Clone() Train {
	cp := t
	cp.Route = append([]string(nil), t.Route...)
	if t.Requested != nil {
		cp.Requested = make(map[string]Window, len(t.Requested))
		for k, v := range t.Requested {
			cp.Requested[k] = v
		}
	}
	return cp
}

// CloneTrains deep-copies a train slice.
func CloneTrains(trains []Train) []Train {
	out := make([]Train, len(trains))
	for i, t := range trains {
		out[i] = t.Clone()
	}
	return out
}
