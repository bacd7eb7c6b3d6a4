// Package rewrite implements the four fixed-order rewrite passes that turn a
// user-built lazy computation into a smaller, fusion-friendly DAG, plus the
// orchestrator that runs them to fixed point per output root.
package rewrite

import (
	"context"

	"github.com/flumeopt/optimizer/pkg/collections"
	"github.com/flumeopt/optimizer/pkg/ferrors"
	"github.com/flumeopt/optimizer/pkg/graph"
	"github.com/flumeopt/optimizer/pkg/utils"
)

// visited is a one-shot traversal guard shared across every output root a
// pass walks in a single invocation: once a collection has been fully
// processed from one root, a second root reaching it through a shared
// ancestor must not reprocess it.
type visited struct {
	bits *collections.Bitset
}

func newVisited(size int) *visited {
	return &visited{bits: collections.NewBitset(size)}
}

func (v *visited) seen(id graph.CollectionID) bool {
	return v.bits.Test(int(id))
}

func (v *visited) mark(id graph.CollectionID) {
	v.bits.Set(int(id))
}

// Optimize runs steps 1-5 of the orchestrator: argument validation, the
// three rewrite passes applied per output root in fixed order, and
// dead-branch removal from the inputs. It
// mutates g in place. MSCR formation and scheduling (steps 6-7) live in
// pkg/mscr and pkg/scheduler.
func Optimize(ctx context.Context, g *graph.Graph, inputs, outputs []graph.CollectionID, log utils.Logger) error {
	if len(inputs) == 0 || len(outputs) == 0 {
		return ferrors.New(ferrors.KindInvalidArgument, "inputs and outputs must both be non-empty")
	}
	if log == nil {
		log = &utils.NullLogger{}
	}

	size := g.NumCollections()

	log.Debug("rewrite: sinkFlattens")
	sv := newVisited(size)
	for _, out := range outputs {
		if err := checkCancel(ctx); err != nil {
			return err
		}
		if err := sinkFlattens(g, sv, out); err != nil {
			return err
		}
	}

	log.Debug("rewrite: fuseParallelDos")
	fv := newVisited(g.NumCollections())
	for _, out := range outputs {
		if err := checkCancel(ctx); err != nil {
			return err
		}
		if err := fuseParallelDos(g, fv, out); err != nil {
			return err
		}
	}

	log.Debug("rewrite: fuseSiblingParallelDos")
	gv := newVisited(g.NumCollections())
	for _, out := range outputs {
		if err := checkCancel(ctx); err != nil {
			return err
		}
		if err := fuseSiblingParallelDos(g, gv, out); err != nil {
			return err
		}
	}

	log.Debug("rewrite: removeUnnecessaryOps")
	if err := checkCancel(ctx); err != nil {
		return err
	}
	if err := RemoveUnnecessaryOps(g, inputs, outputs); err != nil {
		return err
	}

	return nil
}

func checkCancel(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// recurseIntoOrigins is the generic upward fallthrough every pass uses when
// the op at the current node does not match its own rewrite pattern: keep
// walking into whatever is upstream without touching this op.
func recurseIntoOrigins(g *graph.Graph, op graph.OpID, next func(graph.CollectionID) error) error {
	for _, origin := range g.Origins(op) {
		if err := next(origin); err != nil {
			return err
		}
	}
	return nil
}
