package model

import "time"

// ConflictKind distinguishes capacity overruns from headway violations.
type ConflictKind int

const (
	CapacityExceeded ConflictKind = iota
	HeadwayViolation
)

// String returns a human-readable representation of the conflict kind.
func (k ConflictKind) String() string {
	switch k {
	case CapacityExceeded:
		return "capacity"
	case HeadwayViolation:
		return "headway"
	default:
		return "unknown"
	}
}

// Conflict is a capacity or headway violation found in a candidate schedule.
// Severity is the violation window in minutes multiplied by the sum of the
// priorities of the trains involved.
type Conflict struct {
	SectionID string       `json:"section_id"`
	TrainIDs  []string     `json:"train_ids"`
	Window    Window       `json:"window"`
	Kind      ConflictKind `json:"kind"`
	Severity  float64      `json:"severity"`
}

// Strategy tags a corrective action proposed for a conflict.
type Strategy int

const (
	StrategyHold Strategy = iota
	StrategyReorder
	StrategyReroute
)

// String returns a human-readable representation of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyHold:
		return "hold"
	case StrategyReorder:
		return "reorder"
	case StrategyReroute:
		return "reroute"
	default:
		return "unknown"
	}
}

// Resolution is a proposed corrective action for a conflict. AltRoute is only
// populated for reroute strategies.
type Resolution struct {
	ID         string        `json:"id"`
	Conflict   Conflict      `json:"conflict"`
	Strategy   Strategy      `json:"strategy"`
	YieldTrain string        `json:"yield_train"`
	AddedDelay time.Duration `json:"added_delay"`
	Score      float64       `json:"score"`
	AltRoute   []string      `json:"alt_route,omitempty"`
}
