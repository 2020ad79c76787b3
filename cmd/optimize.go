package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/railops/railsched/app"
	"github.com/railops/railsched/config"
	"github.com/railops/railsched/core/engine"
	"github.com/railops/railsched/core/metrics"
	"github.com/railops/railsched/core/model"
	"github.com/railops/railsched/core/solver"
	"github.com/railops/railsched/infra/logger"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Optimize the configured scenario once and print the schedule",
	RunE:  optimizeOnce,
}

func init() {
	rootCmd.AddCommand(optimizeCmd)
}

func optimizeOnce(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New("optimize-command")
	eng, err := engine.New(cfg.Engine, engine.Options{Logger: logg})
	if err != nil {
		return err
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logg.Errorf("engine close: %v", err)
		}
	}()

	sc, err := app.NewFileRepository(cfg.Scenario).Load()
	if err != nil {
		return err
	}
	budget := time.Duration(cfg.Service.TimeBudgetMs) * time.Millisecond
	res, err := eng.Optimize(ctx, sc.Trains, sc.Sections, solver.Weights{}, budget)
	if err != nil {
		return err
	}
	if res.Schedule == nil {
		for _, v := range res.Violations {
			logg.Errorf("infeasible: section %s: %s", v.SectionID, v.Reason)
		}
		return fmt.Errorf("scenario is infeasible")
	}

	conflicts, err := eng.DetectConflicts(ctx, res.Schedule, sc.Sections)
	if err != nil {
		return err
	}
	var resolutions []model.Resolution
	if len(conflicts) > 0 {
		if resolutions, err = eng.ResolveConflicts(ctx, conflicts, sc.Trains, sc.Sections); err != nil {
			return err
		}
	}
	m, err := eng.ComputeMetrics(res.Schedule, sc.Sections)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Result      solver.Result      `json:"result"`
		Conflicts   []model.Conflict   `json:"conflicts,omitempty"`
		Resolutions []model.Resolution `json:"resolutions,omitempty"`
		Metrics     metrics.Metrics    `json:"metrics"`
	}{res, conflicts, resolutions, m})
}
