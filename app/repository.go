package app

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/railops/railsched/core/model"
)

// ScenarioRepository loads and persists scheduling scenarios. Implementations
// must return deep copies so callers never share mutable state.
type ScenarioRepository interface {
	Load() (model.Scenario, error)
	Save(sc model.Scenario) error
}

// FileRepository stores the scenario as a JSON document on disk.
type FileRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileRepository creates a repository backed by the file at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

// Load reads and validates the scenario.
func (r *FileRepository) Load() (model.Scenario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, err := os.ReadFile(r.path)
	if err != nil {
		return model.Scenario{}, fmt.Errorf("read scenario: %w", err)
	}
	var sc model.Scenario
	if err := json.Unmarshal(b, &sc); err != nil {
		return model.Scenario{}, fmt.Errorf("decode scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return model.Scenario{}, err
	}
	return sc, nil
}

// Save validates and writes the scenario atomically.
func (r *FileRepository) Save(sc model.Scenario) error {
	if err := sc.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	b, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return err
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}
