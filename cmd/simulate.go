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
	"github.com/railops/railsched/core/sim"
	"github.com/railops/railsched/core/solver"
	"github.com/railops/railsched/infra/logger"
)

var deltaPath string

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a what-if scenario against the configured baseline",
	RunE:  simulate,
}

func init() {
	simulateCmd.Flags().StringVarP(&deltaPath, "delta", "d", "", "JSON file describing the scenario delta")
	_ = simulateCmd.MarkFlagRequired("delta")
	rootCmd.AddCommand(simulateCmd)
}

func simulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	b, err := os.ReadFile(deltaPath)
	if err != nil {
		return fmt.Errorf("read delta: %w", err)
	}
	var delta sim.ScenarioDelta
	if err := json.Unmarshal(b, &delta); err != nil {
		return fmt.Errorf("decode delta: %w", err)
	}

	logg := logger.New("simulate-command")
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
	base, err := eng.Optimize(ctx, sc.Trains, sc.Sections, solver.Weights{}, budget)
	if err != nil {
		return err
	}
	if base.Schedule == nil {
		return fmt.Errorf("baseline scenario is infeasible")
	}
	out, err := eng.Simulate(ctx, base.Schedule, sc.Trains, sc.Sections, delta, budget)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Status  string      `json:"status"`
		Dropped []string    `json:"dropped,omitempty"`
		Before  interface{} `json:"before"`
		After   interface{} `json:"after"`
		Diff    interface{} `json:"diff"`
	}{
		Status:  out.Status.String(),
		Dropped: out.Dropped,
		Before:  out.Before,
		After:   out.After,
		Diff:    out.Diff,
	})
}
