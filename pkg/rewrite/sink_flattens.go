package rewrite

import "github.com/flumeopt/optimizer/pkg/graph"

// sinkFlattens pushes a Flatten below its single ParallelDo consumer, so the
// ParallelDo distributes over the union and producer-consumer fusion has
// more to work with downstream. It walks upward from current, recursing
// into each Flatten's origins before rewriting so nested Flattens sink in
// one bottom-up sweep, and stops at materialized collections.
func sinkFlattens(g *graph.Graph, v *visited, current graph.CollectionID) error {
	if v.seen(current) {
		return nil
	}
	v.mark(current)

	if g.IsMaterialized(current) {
		return nil
	}
	producer := g.Collection(current).Producer()
	if producer == graph.NoOp {
		return nil
	}
	op := g.Op(producer)

	if op.Kind() != graph.KindFlatten {
		return recurseIntoOrigins(g, producer, func(o graph.CollectionID) error {
			return sinkFlattens(g, v, o)
		})
	}

	origins := op.Origins()
	for _, u := range origins {
		if err := sinkFlattens(g, v, u); err != nil {
			return err
		}
	}

	consumers := g.Collection(current).Consumers()
	if len(consumers) != 1 {
		return nil
	}
	candidate := g.Op(consumers[0])
	if candidate.Kind() != graph.KindParallelDo {
		return nil
	}

	fn := candidate.Fn()
	dest := candidate.Dest()
	destType := g.Collection(dest).ElemType()

	newOrigins := make([]graph.CollectionID, len(origins))
	for i, u := range origins {
		vi := g.AddCollection(destType, false)
		pd := g.RawOp(graph.KindParallelDo, fn, u, nil, vi, nil)
		if err := g.RemoveConsumer(u, op.ID()); err != nil {
			return err
		}
		if err := g.AddConsumer(u, pd); err != nil {
			return err
		}
		if err := g.SetProducer(vi, pd); err != nil {
			return err
		}
		newOrigins[i] = vi
	}

	newFlatten := g.RawOp(graph.KindFlatten, nil, graph.NoCollection, newOrigins, dest, nil)
	for _, vi := range newOrigins {
		if err := g.AddConsumer(vi, newFlatten); err != nil {
			return err
		}
	}
	g.ReplaceProducer(dest, newFlatten)

	return nil
}
