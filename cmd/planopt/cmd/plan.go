package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flumeopt/optimizer/pkg/config"
	"github.com/flumeopt/optimizer/pkg/dsl"
	"github.com/flumeopt/optimizer/pkg/optimizer"
	"github.com/flumeopt/optimizer/pkg/planstore"
	"github.com/flumeopt/optimizer/pkg/telemetry"
)

var (
	inputPath string
	outFormat string
	cacheKey  string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Optimize a JSON workflow description into a staged execution plan",
	Example: `  planopt plan -i ./workflow.json
  planopt plan -i ./workflow.json --format json
  planopt plan -i ./workflow.json -c ./planopt.yaml --cache-key nightly-etl`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Path to a JSON workflow description (required)")
	planCmd.Flags().StringVarP(&outFormat, "format", "f", "tree", "Output format: tree or json")
	planCmd.Flags().StringVar(&cacheKey, "cache-key", "", "Plan cache key; the plan cache is used when this is set and optimizer.enable_plan_cache is true")
	_ = planCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	log := GetLogger()

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read workflow file: %w", err)
	}

	g, inputs, outputs, err := dsl.LoadJSON(data, registeredFns)
	if err != nil {
		return fmt.Errorf("failed to load workflow: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if telemetry.Enabled() {
		shutdown, err := telemetry.Init(ctx)
		if err != nil {
			log.Warn("failed to initialize telemetry: %s", err.Error())
		} else {
			defer func() { _ = shutdown(ctx) }()
		}
	}

	opts := &optimizer.Options{Logger: log}

	if cfg.Optimizer.EnablePlanCache && cacheKey != "" {
		db, err := planstore.NewDB(&planstore.Config{
			Type:     cfg.PlanStore.Type,
			Path:     cfg.PlanStore.Path,
			Host:     cfg.PlanStore.Host,
			Port:     cfg.PlanStore.Port,
			Database: cfg.PlanStore.Database,
			User:     cfg.PlanStore.User,
			Password: cfg.PlanStore.Password,
			MaxConns: cfg.PlanStore.MaxConns,
		})
		if err != nil {
			return fmt.Errorf("failed to open plan store: %w", err)
		}
		opts.Cache = planstore.NewStore(db)
		opts.CacheKey = cacheKey
	}

	plan, err := optimizer.Optimize(ctx, g, inputs, outputs, opts)
	if err != nil {
		return fmt.Errorf("optimize failed: %w", err)
	}

	switch outFormat {
	case "json":
		return printPlanJSON(plan)
	case "tree":
		printPlanTree(plan)
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want tree or json)", outFormat)
	}
}

// registeredFns resolves ParallelDo/CombineValues functions a workflow
// description may reference by name. Empty by default: embedding callers
// extend this by building their own cmd/planopt binary against pkg/dsl
// directly when they need custom functions wired in.
var registeredFns = dsl.FnRegistry{}

func printPlanJSON(plan *optimizer.Plan) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(plan)
}

func printPlanTree(plan *optimizer.Plan) {
	stageNum := 0
	for step := plan.Stages; step != nil; step = step.NextStep {
		stageNum++
		fmt.Printf("stage %d\n", stageNum)
		for _, m := range step.MSCRs {
			fmt.Printf("  mscr %d: inputs=%v groupByKeys=%v\n", m.ID, m.Inputs, m.GroupByKeys)
			for out, ch := range m.OutputChannels {
				fmt.Printf("    output %d <- groupByKey %d, reducers %v\n", out, ch.GroupByKey, ch.Reducers)
			}
		}
	}
}
