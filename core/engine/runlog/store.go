// Package runlog persists a history of engine runs. Two backends are
// provided: an append-only JSONL file and a SQLite database.
package runlog

import (
	"context"
	"fmt"
	"time"
)

// Record captures one engine operation and its outcome.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id"`
	Operation string    `json:"operation"`
	Status    string    `json:"status"`
	Cost      float64   `json:"cost"`
	Trains    int       `json:"trains"`
	Conflicts int       `json:"conflicts"`
	ElapsedMs int64     `json:"elapsed_ms"`
	Detail    string    `json:"detail,omitempty"`
}

// Query defines filters for retrieving records.
type Query struct {
	Start     time.Time
	End       time.Time
	Operation string
	Status    string
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// Config selects and parametrizes a run log backend.
type Config struct {
	// Type is "none", "jsonl" or "sqlite".
	Type string `json:"type"`
	Path string `json:"path"`
}

func (c *Config) SetDefaults() {
	if c.Type == "" {
		c.Type = "none"
	}
}

func (c *Config) Validate() error {
	switch c.Type {
	case "none", "jsonl", "sqlite":
	default:
		return fmt.Errorf("unknown run log type %q", c.Type)
	}
	if c.Type != "none" && c.Path == "" {
		return fmt.Errorf("run log type %q requires a path", c.Type)
	}
	return nil
}

// Open builds the store described by the configuration.
func Open(cfg Config) (Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Type {
	case "jsonl":
		return NewJSONLStore(cfg.Path)
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	default:
		return NopStore{}, nil
	}
}

// NopStore discards every record.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
