// Package optimizer composes the rewrite passes, MSCR formation, and
// scheduler into the full seven-step pipeline described for the orchestrator:
// validate, rewrite to fixed point per output root, prune dead branches,
// form MSCRs, and emit a staged execution plan.
package optimizer

import (
	"context"

	"github.com/flumeopt/optimizer/pkg/ferrors"
	"github.com/flumeopt/optimizer/pkg/graph"
	"github.com/flumeopt/optimizer/pkg/mscr"
	"github.com/flumeopt/optimizer/pkg/rewrite"
	"github.com/flumeopt/optimizer/pkg/scheduler"
	"github.com/flumeopt/optimizer/pkg/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "github.com/flumeopt/optimizer/pkg/optimizer"

// Plan is the result of Optimize: the MSCRs discovered in the rewritten
// graph and the staged execution chain over them.
type Plan struct {
	MSCRs  []*mscr.MSCR
	Stages *scheduler.ExecutionStep
}

// PlanCache is consulted before rewriting and populated after a successful
// Optimize call. A nil cache disables the short-circuit entirely; Get
// returning ok=false means "no cached plan", not an error.
type PlanCache interface {
	Get(ctx context.Context, key string) (*Plan, bool, error)
	Put(ctx context.Context, key string, plan *Plan) error
}

// Options configures an Optimize call beyond the required graph/inputs/
// outputs triple.
type Options struct {
	Logger utils.Logger
	Cache  PlanCache
	// CacheKey identifies the plan in Cache. Required if Cache is set.
	CacheKey string
}

// Optimize runs the full pipeline over g: rewrite passes 1-4 to fixed
// point per output root (pkg/rewrite), dead-branch pruning, MSCR formation
// (pkg/mscr), and stage scheduling (pkg/scheduler). g is consumed — callers
// must not mutate it concurrently with, or read op/collection identity
// from it after, this call.
func Optimize(ctx context.Context, g *graph.Graph, inputs, outputs []graph.CollectionID, opts *Options) (*Plan, error) {
	if opts == nil {
		opts = &Options{}
	}
	log := opts.Logger
	if log == nil {
		log = &utils.NullLogger{}
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "optimizer.Optimize")
	defer span.End()

	if opts.Cache != nil && opts.CacheKey != "" {
		if cached, ok, err := opts.Cache.Get(ctx, opts.CacheKey); err == nil && ok {
			log.Debug("plan cache hit for key %s", opts.CacheKey)
			span.SetAttributes(attribute.Bool("plan_cache.hit", true))
			return cached, nil
		}
	}

	if err := rewrite.Optimize(ctx, g, inputs, outputs, log); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		err = ferrors.Wrap(ferrors.KindInvalidArgument, "optimize cancelled before MSCR formation", err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	mscrs, err := mscr.Build(g, outputs)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("optimizer.mscr_count", len(mscrs)))

	if err := ctx.Err(); err != nil {
		err = ferrors.Wrap(ferrors.KindInvalidArgument, "optimize cancelled before scheduling", err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	stages, err := scheduler.Schedule(mscrs)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	plan := &Plan{MSCRs: mscrs, Stages: stages}

	if opts.Cache != nil && opts.CacheKey != "" {
		if err := opts.Cache.Put(ctx, opts.CacheKey, plan); err != nil {
			log.Warn("failed to populate plan cache for key %s: %s", opts.CacheKey, err.Error())
		}
	}

	return plan, nil
}
