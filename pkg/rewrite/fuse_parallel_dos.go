package rewrite

import "github.com/flumeopt/optimizer/pkg/graph"

// fuseParallelDos fuses a producer-consumer ParallelDo chain into a single
// ParallelDo whose function is the composition of the two. It repeatedly
// fuses at current (the shortened chain may itself be fusible again) before
// walking further upward, and never fuses a CombineValues into its
// GroupByKey-fed input — the combiner must stay attached to its shuffle.
func fuseParallelDos(g *graph.Graph, v *visited, current graph.CollectionID) error {
	if v.seen(current) {
		return nil
	}

	for {
		if g.IsMaterialized(current) {
			break
		}
		p1id := g.Collection(current).Producer()
		if p1id == graph.NoOp {
			break
		}
		p1 := g.Op(p1id)
		if !p1.Kind().IsParallelDoLike() {
			break
		}

		o1 := p1.Origin()
		if g.IsMaterialized(o1) {
			break
		}
		p2id := g.Collection(o1).Producer()
		if p2id == graph.NoOp {
			break
		}
		p2 := g.Op(p2id)
		if !p2.Kind().IsParallelDoLike() {
			break
		}

		o2 := p2.Origin()
		if p2.Kind() == graph.KindCombineValues && producesFromGroupByKey(g, o2) {
			break
		}

		f1, f2 := p1.Fn(), p2.Fn()
		composed := func(value any, emit graph.Emit) {
			f2(value, func(w any) {
				f1(w, emit)
			})
		}

		newOp := g.RawOp(graph.KindParallelDo, composed, o2, nil, current, nil)
		if err := g.RemoveConsumer(o1, p1id); err != nil {
			return err
		}
		if err := g.RemoveConsumer(o2, p2id); err != nil {
			return err
		}
		if err := g.AddConsumer(o2, newOp); err != nil {
			return err
		}
		g.ReplaceProducer(current, newOp)
	}

	v.mark(current)

	producer := g.Collection(current).Producer()
	if producer == graph.NoOp {
		return nil
	}
	return recurseIntoOrigins(g, producer, func(o graph.CollectionID) error {
		return fuseParallelDos(g, v, o)
	})
}

func producesFromGroupByKey(g *graph.Graph, c graph.CollectionID) bool {
	producer := g.Collection(c).Producer()
	if producer == graph.NoOp {
		return false
	}
	return g.Op(producer).Kind() == graph.KindGroupByKey
}
