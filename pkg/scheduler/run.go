package scheduler

import (
	"context"
	"fmt"

	"github.com/flumeopt/optimizer/pkg/mscr"
	"github.com/flumeopt/optimizer/pkg/parallel"
)

// RunStaged walks plan stage by stage, running run synchronously to
// completion for every MSCR before advancing to the next stage, but fanning
// the MSCRs within one stage out over a worker pool since nothing in a
// stage depends on anything else in the same stage. It never touches the
// graph that produced plan — run is entirely the caller's concern.
func RunStaged(ctx context.Context, plan *ExecutionStep, run func(context.Context, *mscr.MSCR) error) error {
	for step := plan; step != nil; step = step.NextStep {
		if err := runStage(ctx, step.MSCRs, run); err != nil {
			return err
		}
	}
	return nil
}

func runStage(ctx context.Context, stage []*mscr.MSCR, run func(context.Context, *mscr.MSCR) error) error {
	if len(stage) == 0 {
		return nil
	}

	pool := parallel.NewWorkerPool[*mscr.MSCR, struct{}](parallel.DefaultPoolConfig().WithWorkers(len(stage)))
	results := pool.ExecuteFunc(ctx, stage, func(ctx context.Context, m *mscr.MSCR) (struct{}, error) {
		return struct{}{}, run(ctx, m)
	})

	for i, r := range results {
		if r.Error != nil {
			return fmt.Errorf("mscr %d: %w", stage[i].ID, r.Error)
		}
	}
	return nil
}
