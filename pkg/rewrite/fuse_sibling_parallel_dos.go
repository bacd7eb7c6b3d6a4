package rewrite

import "github.com/flumeopt/optimizer/pkg/graph"

// fuseSiblingParallelDos fuses two or more ParallelDo ops that share an
// input into one MultipleParallelDo, preserving the relative order of the
// input's non-ParallelDo consumers.
func fuseSiblingParallelDos(g *graph.Graph, v *visited, current graph.CollectionID) error {
	if v.seen(current) {
		return nil
	}
	v.mark(current)

	if g.IsMaterialized(current) {
		return nil
	}
	pid := g.Collection(current).Producer()
	if pid == graph.NoOp {
		return nil
	}
	p := g.Op(pid)

	if p.Kind() != graph.KindParallelDo {
		return recurseIntoOrigins(g, pid, func(o graph.CollectionID) error {
			return fuseSiblingParallelDos(g, v, o)
		})
	}

	origin := p.Origin()

	var siblings []graph.OpID
	for _, consumer := range g.Collection(origin).Consumers() {
		if g.Op(consumer).Kind() == graph.KindParallelDo {
			siblings = append(siblings, consumer)
		}
	}

	if len(siblings) >= 2 {
		dests := make([]graph.MultiDest, len(siblings))
		for i, opID := range siblings {
			op := g.Op(opID)
			dests[i] = graph.MultiDest{Fn: op.Fn(), Dest: op.Dest()}
		}
		mpd := g.RawOp(graph.KindMultipleParallelDo, nil, origin, nil, graph.NoCollection, dests)
		if err := g.ReplaceConsumers(origin, siblings, mpd); err != nil {
			return err
		}
		for _, md := range dests {
			g.ReplaceProducer(md.Dest, mpd)
		}
	}

	return fuseSiblingParallelDos(g, v, origin)
}
