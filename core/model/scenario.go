package model

import "fmt"

// Scenario bundles the domain inputs for one optimization request. The engine
// holds no state beyond a run; scenarios are supplied per call by the owning
// service layer.
type Scenario struct {
	Trains   []Train        `json:"trains"`
	Sections []TrackSection `json:"sections"`
	Stations []Station      `json:"stations,omitempty"`
	Signals  []Signal       `json:"signals,omitempty"`
}

// Validate checks every entity plus referential integrity: each section a
// train routes over, and each section a signal protects, must exist.
func (sc Scenario) Validate() error {
	return ValidateScenario(sc.Trains, sc.Sections)
}

// Clone deep-copies the scenario.
func (sc Scenario) Clone() Scenario {
	cp := Scenario{
		Trains:   CloneTrains(sc.Trains),
		Sections: CloneSections(sc.Sections),
	}
	cp.Stations = append([]Station(nil), sc.Stations...)
	cp.Signals = append([]Signal(nil), sc.Signals...)
	return cp
}

// ValidateScenario validates trains and sections together, including the
// referential integrity of every route.
func ValidateScenario(trains []Train, sections []TrackSection) error {
	idx := make(map[string]bool, len(sections))
	for _, s := range sections {
		if err := s.Validate(); err != nil {
			return err
		}
		if idx[s.ID] {
			return &ValidationError{Entity: "section", ID: s.ID, Reason: "duplicate id"}
		}
		idx[s.ID] = true
	}
	seen := make(map[string]bool, len(trains))
	for _, t := range trains {
		if err := t.Validate(); err != nil {
			return err
		}
		if seen[t.ID] {
			return &ValidationError{Entity: "train", ID: t.ID, Reason: "duplicate id"}
		}
		seen[t.ID] = true
		for _, sec := range t.Route {
			if !idx[sec] {
				return &ValidationError{Entity: "train", ID: t.ID, Reason: fmt.Sprintf("route references unknown section %s", sec)}
			}
		}
		if t.Position.Section != "" && !idx[t.Position.Section] {
			return &ValidationError{Entity: "train", ID: t.ID, Reason: fmt.Sprintf("position references unknown section %s", t.Position.Section)}
		}
	}
	return nil
}

// ValidateScheduleRefs checks that every section referenced by a schedule
// exists in the supplied section set.
func ValidateScheduleRefs(s Schedule, sections []TrackSection) error {
	idx := SectionIndex(sections)
	for _, id := range s.TrainIDs() {
		for _, e := range s[id] {
			if _, ok := idx[e.SectionID]; !ok {
				return &ValidationError{Entity: "schedule", ID: id, Reason: fmt.Sprintf("entry references unknown section %s", e.SectionID)}
			}
		}
	}
	return nil
}
