package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `engine:
  solver:
    weights:
      delay: 1
      throughput: 10
    horizon_minutes: 600
    workers: 2
  metrics:
    on_time_tolerance_minutes: 3
run_log:
  type: jsonl
  path: runs.jsonl
service:
  interval_seconds: 30
  time_budget_ms: 250
  prometheus_port: 9104
scenario: scenario.json
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"horizon_minutes", cfg.Engine.Solver.HorizonMinutes, 600},
		{"workers", cfg.Engine.Solver.Workers, 2},
		{"weights.throughput", cfg.Engine.Solver.Weights.Throughput, 10.0},
		{"on_time_tolerance", cfg.Engine.Metrics.OnTimeToleranceMinutes, 3.0},
		{"run_log.type", cfg.RunLog.Type, "jsonl"},
		{"run_log.path", cfg.RunLog.Path, "runs.jsonl"},
		{"interval_seconds", cfg.Service.IntervalSeconds, 30},
		{"time_budget_ms", cfg.Service.TimeBudgetMs, 250},
		{"prometheus_port", cfg.Service.PrometheusPort, 9104},
		{"scenario", cfg.Scenario, "scenario.json"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
	// Defaults should be filled where the file is silent.
	if cfg.Engine.Solver.MaxRounds == 0 {
		t.Errorf("solver defaults not applied")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `service:
  time_budget_ms: 100
scenario: scenario.json
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("RS_SERVICE__TIME_BUDGET_MS", "900")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Service.TimeBudgetMs != 900 {
		t.Errorf("env override not applied: %d", cfg.Service.TimeBudgetMs)
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	if _, err := Load("config.toml"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestLoadRejectsInvalidRunLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `run_log:
  type: sqlite
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for sqlite run log without path")
	}
}
