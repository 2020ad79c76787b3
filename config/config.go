// Package config loads the service configuration from YAML or JSON files
// with optional environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/railops/railsched/core/engine"
	"github.com/railops/railsched/core/engine/runlog"
)

type Config struct {
	Engine   engine.Config `json:"engine"`
	RunLog   runlog.Config `json:"run_log"`
	Service  ServiceConfig `json:"service"`
	Scenario string        `json:"scenario"`
}

// ServiceConfig controls the long-running service loop.
type ServiceConfig struct {
	// IntervalSeconds is the pause between periodic re-optimizations.
	// Zero disables the loop; the service then runs once and exits.
	IntervalSeconds int `json:"interval_seconds"`
	// TimeBudgetMs caps each optimization run. Zero uses the solver default.
	TimeBudgetMs int `json:"time_budget_ms"`
	// PrometheusPort exposes /metrics when positive.
	PrometheusPort int `json:"prometheus_port"`
}

func (c *ServiceConfig) Validate() error {
	if c.IntervalSeconds < 0 {
		return fmt.Errorf("interval_seconds must not be negative")
	}
	if c.TimeBudgetMs < 0 {
		return fmt.Errorf("time_budget_ms must not be negative")
	}
	return nil
}

// Load reads the file at path, applies RS_-prefixed environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("RS_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "rs_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Engine.SetDefaults()
	cfg.RunLog.SetDefaults()
	if err := cfg.Engine.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.RunLog.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Service.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
