package solver

import (
	"fmt"
	"time"
)

// Weights are the objective coefficients: delay is penalised, throughput
// (trains completed within the horizon) is rewarded.
type Weights struct {
	Delay      float64 `json:"delay"`
	Throughput float64 `json:"throughput"`
}

// Config defines planning parameters loaded from configuration.
type Config struct {
	Weights Weights `json:"weights"`
	// HorizonMinutes bounds the planning window; entries pushed beyond it
	// make the scenario infeasible.
	HorizonMinutes int `json:"horizon_minutes"`
	// PriorityToleranceMinutes is the weighted-delay gain a lower-priority
	// train must offer before it may overtake a higher-priority one.
	// Zero keeps strict priority order.
	PriorityToleranceMinutes float64 `json:"priority_tolerance_minutes"`
	// CautionBufferMinutes is added to the travel time of sections whose
	// entry signal shows caution.
	CautionBufferMinutes int `json:"caution_buffer_minutes"`
	// MaxRounds caps the number of local-search rounds. Zero means no cap.
	MaxRounds int `json:"max_rounds"`
	// Workers sets the number of goroutines evaluating candidate orderings.
	Workers int `json:"workers"`
	// DefaultBudgetMs applies when a caller passes a non-positive budget.
	DefaultBudgetMs int `json:"default_budget_ms"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Weights.Delay == 0 {
		c.Weights.Delay = 1
	}
	if c.Weights.Throughput == 0 {
		c.Weights.Throughput = 10
	}
	if c.HorizonMinutes == 0 {
		c.HorizonMinutes = 24 * 60
	}
	if c.CautionBufferMinutes == 0 {
		c.CautionBufferMinutes = 2
	}
	if c.MaxRounds == 0 {
		c.MaxRounds = 200
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.DefaultBudgetMs == 0 {
		c.DefaultBudgetMs = 5000
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Weights.Delay < 0 || c.Weights.Throughput < 0 {
		return fmt.Errorf("objective weights must not be negative")
	}
	if c.HorizonMinutes <= 0 {
		return fmt.Errorf("horizon_minutes must be positive")
	}
	if c.PriorityToleranceMinutes < 0 {
		return fmt.Errorf("priority_tolerance_minutes must not be negative")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	return nil
}

// Horizon returns the planning window as a duration.
func (c Config) Horizon() time.Duration {
	return time.Duration(c.HorizonMinutes) * time.Minute
}

// DefaultBudget returns the fallback wall-clock budget.
func (c Config) DefaultBudget() time.Duration {
	return time.Duration(c.DefaultBudgetMs) * time.Millisecond
}
