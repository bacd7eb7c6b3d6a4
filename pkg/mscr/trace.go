package mscr

import "github.com/flumeopt/optimizer/pkg/graph"

// path is one upward walk from an output down to the GroupByKey that feeds
// it, recording the reducer chain (CombineValues/ParallelDo/OneToOneOp/
// MultipleParallelDo ops) encountered along the way, ordered from just
// after the GroupByKey to the output.
type path struct {
	gbk   graph.OpID
	chain []graph.OpID
}

// tracePaths walks upward from c until it reaches a GroupByKey on every
// path, branching at any remaining Flatten (a union of distinct shuffles
// feeding one output survives rewriting when its branches are not fusible).
// A path that reaches an input with no GroupByKey above it (a bypass input,
// the known limitation in §4.4) yields no entry.
func tracePaths(g *graph.Graph, c graph.CollectionID) []path {
	producer := g.Collection(c).Producer()
	if producer == graph.NoOp {
		return nil
	}

	op := g.Op(producer)
	switch op.Kind() {
	case graph.KindGroupByKey:
		return []path{{gbk: producer}}
	case graph.KindFlatten:
		var out []path
		for _, origin := range op.Origins() {
			out = append(out, tracePaths(g, origin)...)
		}
		return out
	default:
		var out []path
		for _, origin := range g.Origins(producer) {
			for _, p := range tracePaths(g, origin) {
				chain := make([]graph.OpID, len(p.chain), len(p.chain)+1)
				copy(chain, p.chain)
				chain = append(chain, producer)
				out = append(out, path{gbk: p.gbk, chain: chain})
			}
		}
		return out
	}
}
