// Package events defines the typed events the engine publishes on the
// internal event bus. Subscribers must not block; delivery is best effort.
package events

import (
	"time"

	"github.com/railops/railsched/core/model"
)

// RunEvent is published after every optimization run.
type RunEvent struct {
	RunID   string
	Status  string
	Cost    float64
	Trains  int
	Elapsed time.Duration
}

// ConflictEvent is published after conflict detection.
type ConflictEvent struct {
	RunID     string
	Conflicts []model.Conflict
}

// ResolutionEvent is published after resolution proposals are generated.
type ResolutionEvent struct {
	RunID       string
	Resolutions int
}

// SimulationEvent is published after a what-if simulation.
type SimulationEvent struct {
	RunID   string
	Status  string
	Dropped []string
}
