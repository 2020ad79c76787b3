package model

import (
	"fmt"
	"time"
)

// SignalState is the aspect of the signal protecting entry into a section.
type SignalState int

const (
	SignalClear SignalState = iota
	SignalCaution
	SignalStop
)

// String returns a human-readable representation of the signal state.
func (s SignalState) String() string {
	switch s {
	case SignalClear:
		return "clear"
	case SignalCaution:
		return "caution"
	case SignalStop:
		return "stop"
	default:
		return "unknown"
	}
}

// ParseSignalState converts a configuration string into a SignalState.
func ParseSignalState(s string) (SignalState, error) {
	switch s {
	case "clear":
		return SignalClear, nil
	case "caution":
		return SignalCaution, nil
	case "stop":
		return SignalStop, nil
	default:
		return 0, fmt.Errorf("unknown signal state %q", s)
	}
}

// TrackSection is a track segment with bounded simultaneous occupancy.
// Sections are read-only during a scheduling run.
type TrackSection struct {
	ID          string        `json:"id"`
	Capacity    int           `json:"capacity"`
	LengthKm    float64       `json:"length_km"`
	MaxSpeedKmh float64       `json:"max_speed_kmh"`
	From        string        `json:"from"`
	To          string        `json:"to"`
	Headway     time.Duration `json:"headway"`
	Signal      SignalState   `json:"signal"`
}

// Validate checks that the section definition is sound.
func (s TrackSection) Validate() error {
	if s.ID == "" {
		return &ValidationError{Entity: "section", Reason: "missing id"}
	}
	if s.Capacity < 0 {
		return &ValidationError{Entity: "section", ID: s.ID, Reason: "negative capacity"}
	}
	if s.LengthKm <= 0 {
		return &ValidationError{Entity: "section", ID: s.ID, Reason: "length must be positive"}
	}
	if s.Headway < 0 {
		return &ValidationError{Entity: "section", ID: s.ID, Reason: "negative headway"}
	}
	return nil
}

// TravelTime returns the time a train running at speedKmh needs to clear the
// section, honouring the section speed limit. The result is never below one
// minute so that degenerate inputs cannot produce zero-length occupancies.
func (s TrackSection) TravelTime(speedKmh float64) time.Duration {
	v := speedKmh
	if s.MaxSpeedKmh > 0 && s.MaxSpeedKmh < v {
		v = s.MaxSpeedKmh
	}
	if v <= 0 {
		return time.Minute
	}
	d := time.Duration(s.LengthKm / v * float64(time.Hour))
	if d < time.Minute {
		return time.Minute
	}
	return d
}

// Station is a named node in the network referenced by section endpoints.
type Station struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Platforms []string `json:"platforms,omitempty"`
}

// Signal is a standalone signal referenced by a section. Its state mirrors
// the owning section's entry aspect.
type Signal struct {
	ID      string      `json:"id"`
	Section string      `json:"section"`
	State   SignalState `json:"state"`
}

// SectionIndex builds a lookup map from a section slice.
func SectionIndex(sections []TrackSection) map[string]TrackSection {
	idx := make(map[string]TrackSection, len(sections))
	for _, s := range sections {
		idx[s.ID] = s
	}
	return idx
}

// CloneSections deep-copies a section slice.
func CloneSections(sections []TrackSection) []TrackSection {
	out := make([]TrackSection, len(sections))
	copy(out, sections)
	return out
}
