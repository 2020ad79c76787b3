// Package app wires the engine, scenario repository and observability
// adapters into a runnable service.
package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/railops/railsched/config"
	"github.com/railops/railsched/core/engine"
	"github.com/railops/railsched/core/engine/runlog"
	"github.com/railops/railsched/core/events"
	"github.com/railops/railsched/core/model"
	"github.com/railops/railsched/core/solver"
	"github.com/railops/railsched/infra/logger"
	"github.com/railops/railsched/infra/metrics"
	"github.com/railops/railsched/internal/eventbus"
)

// Service orchestrates periodic re-optimization of the configured scenario.
type Service struct {
	Engine   *engine.Engine
	Repo     ScenarioRepository
	bus      eventbus.EventBus
	log      logger.Logger
	interval time.Duration
	budget   time.Duration
	promPort int

	last model.Schedule
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	sink, err := metrics.NewPromSink()
	if err != nil {
		return nil, fmt.Errorf("prom sink: %w", err)
	}
	store, err := runlog.Open(cfg.RunLog)
	if err != nil {
		return nil, fmt.Errorf("run log: %w", err)
	}
	bus := eventbus.New()

	eng, err := engine.New(cfg.Engine, engine.Options{
		Logger: logg,
		Sink:   sink,
		Bus:    bus,
		RunLog: store,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	return &Service{
		Engine:   eng,
		Repo:     NewFileRepository(cfg.Scenario),
		bus:      bus,
		log:      logg,
		interval: time.Duration(cfg.Service.IntervalSeconds) * time.Second,
		budget:   time.Duration(cfg.Service.TimeBudgetMs) * time.Millisecond,
		promPort: cfg.Service.PrometheusPort,
	}, nil
}

// Run starts the service loop and blocks until the context is cancelled.
// With no interval configured the scenario is optimized once.
func (s *Service) Run(ctx context.Context) error {
	if s.promPort > 0 {
		go func() {
			addr := ":" + strconv.Itoa(s.promPort)
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	runs, cancel := eventbus.Filtered[events.RunEvent](s.bus)
	defer cancel()
	go func() {
		for ev := range runs {
			s.log.Debugw("run recorded", map[string]any{
				"run_id":  ev.RunID,
				"status":  ev.Status,
				"cost":    ev.Cost,
				"elapsed": ev.Elapsed.String(),
			})
		}
	}()

	if err := s.RunOnce(ctx); err != nil {
		return err
	}
	if s.interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.log.Errorf("optimization cycle: %v", err)
			}
		}
	}
}

// RunOnce loads the scenario, optimizes it and reports conflicts on the
// result. Subsequent cycles warm-start from the previous schedule.
func (s *Service) RunOnce(ctx context.Context) error {
	sc, err := s.Repo.Load()
	if err != nil {
		return err
	}
	var res solver.Result
	if s.last == nil {
		res, err = s.Engine.Optimize(ctx, sc.Trains, sc.Sections, solver.Weights{}, s.budget)
	} else {
		res, err = s.Engine.Reoptimize(ctx, s.last, sc.Trains, sc.Sections, s.budget)
	}
	if err != nil {
		return err
	}
	s.log.Infof("optimization finished: status=%s cost=%.2f trains=%d elapsed=%s",
		res.Status, res.Cost, len(sc.Trains), res.Elapsed)
	if res.Schedule == nil {
		for _, v := range res.Violations {
			s.log.Warnf("infeasible: section %s: %s", v.SectionID, v.Reason)
		}
		return nil
	}
	s.last = res.Schedule

	conflicts, err := s.Engine.DetectConflicts(ctx, res.Schedule, sc.Sections)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		resolutions, err := s.Engine.ResolveConflicts(ctx, conflicts, sc.Trains, sc.Sections)
		if err != nil {
			return err
		}
		s.log.Warnf("%d conflicts detected, %d resolutions proposed", len(conflicts), len(resolutions))
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	return s.Engine.Close()
}
