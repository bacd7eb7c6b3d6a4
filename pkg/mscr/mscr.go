// Package mscr discovers MapShuffleCombineReduce groupings in a rewritten
// graph: it unions GroupByKey-centered subgraphs that share an upstream
// source collection into a single execution unit and records, for every
// output, the reducer chain that produces it.
package mscr

import (
	"sort"

	"github.com/flumeopt/optimizer/pkg/collections"
	"github.com/flumeopt/optimizer/pkg/ferrors"
	"github.com/flumeopt/optimizer/pkg/graph"
)

// OutputChannel binds one terminal output collection to the shuffle and
// reducer chain that produces it.
type OutputChannel struct {
	Output     graph.CollectionID
	GroupByKey graph.OpID
	Reducers   []graph.OpID
}

// MSCR is a single MapShuffleCombineReduce execution unit: the GroupByKeys
// that share a source collection, the collections entering the unit from
// outside it, and the output channel for every output it produces.
//
// Known limitation: an MSCR never gains a bypass input that skips its
// shuffle entirely — a caller needing to emit an input directly must insert
// an identity GroupByKey upstream of it.
type MSCR struct {
	ID             int
	GroupByKeys    []graph.OpID
	Inputs         []graph.CollectionID
	OutputChannels map[graph.CollectionID]*OutputChannel
}

// Build discovers the MSCRs of g reachable from outputs.
func Build(g *graph.Graph, outputs []graph.CollectionID) ([]*MSCR, error) {
	type discovered struct {
		output graph.CollectionID
		gbk    graph.OpID
		chain  []graph.OpID
	}

	var all []discovered
	traced := make(map[graph.CollectionID]bool)
	queue := append([]graph.CollectionID(nil), outputs...)
	for ; len(queue) > 0; queue = queue[1:] {
		if out := queue[0]; !traced[out] {
			traced[out] = true
			for _, p := range tracePaths(g, out) {
				all = append(all, discovered{output: out, gbk: p.gbk, chain: p.chain})
				up := collections.NewBitset(g.NumCollections())
				markSources(g, g.Op(p.gbk).Origin(), up, collections.NewBitset(g.NumCollections()))
				for _, i := range up.ToSlice() {
					if pr := g.Collection(graph.CollectionID(i)).Producer(); pr != graph.NoOp && g.Op(pr).Kind() == graph.KindGroupByKey {
						queue = append(queue, graph.CollectionID(i))
					}
				}
			}
		}
	}
	if len(all) == 0 {
		return nil, ferrors.New(ferrors.KindGraphInvariant, "no GroupByKey reachable from any output")
	}

	gbkSet := make(map[graph.OpID]bool)
	for _, d := range all {
		gbkSet[d.gbk] = true
	}
	gbks := make([]graph.OpID, 0, len(gbkSet))
	for id := range gbkSet {
		gbks = append(gbks, id)
	}
	sort.Slice(gbks, func(i, j int) bool { return gbks[i] < gbks[j] })

	sources := make(map[graph.OpID]*collections.Bitset, len(gbks))
	for _, id := range gbks {
		bits := collections.NewBitset(g.NumCollections())
		seen := collections.NewBitset(g.NumCollections())
		markSources(g, g.Op(id).Origin(), bits, seen)
		sources[id] = bits
	}

	uf := newUnionFind(gbks)
	for i := 0; i < len(gbks); i++ {
		for j := i + 1; j < len(gbks); j++ {
			if bitsIntersect(sources[gbks[i]], sources[gbks[j]]) {
				uf.union(gbks[i], gbks[j])
			}
		}
	}

	clusterOf := make(map[graph.OpID]graph.OpID, len(gbks))
	members := make(map[graph.OpID][]graph.OpID)
	var roots []graph.OpID
	for _, id := range gbks {
		root := uf.find(id)
		clusterOf[id] = root
		if _, ok := members[root]; !ok {
			roots = append(roots, root)
		}
		members[root] = append(members[root], id)
	}

	mscrByRoot := make(map[graph.OpID]*MSCR, len(roots))
	result := make([]*MSCR, 0, len(roots))
	for i, root := range roots {
		m := &MSCR{
			ID:             i,
			GroupByKeys:    members[root],
			OutputChannels: make(map[graph.CollectionID]*OutputChannel),
		}
		mscrByRoot[root] = m
		result = append(result, m)
	}

	for _, root := range roots {
		m := mscrByRoot[root]
		seen := make(map[graph.CollectionID]bool)
		var inputs []graph.CollectionID
		for _, gbkID := range m.GroupByKeys {
			sources[gbkID].Iterate(func(i int) bool {
				c := graph.CollectionID(i)
				if seen[c] {
					return true
				}
				if producer := g.Collection(c).Producer(); producer != graph.NoOp &&
					g.Op(producer).Kind() == graph.KindGroupByKey && clusterOf[producer] == root {
					return true
				}
				seen[c] = true
				inputs = append(inputs, c)
				return true
			})
		}
		sort.Slice(inputs, func(i, j int) bool { return inputs[i] < inputs[j] })
		m.Inputs = inputs
	}

	for _, d := range all {
		m := mscrByRoot[clusterOf[d.gbk]]
		m.OutputChannels[d.output] = &OutputChannel{Output: d.output, GroupByKey: d.gbk, Reducers: d.chain}
	}

	return result, nil
}

// markSources walks upward from c, recording every true input (no
// producer) and every other GroupByKey's destination as a source boundary
// and stopping there; Build later decides whether such a boundary is
// internal (shared cluster) or an input produced by an upstream MSCR.
func markSources(g *graph.Graph, c graph.CollectionID, bits, seen *collections.Bitset) {
	if seen.Test(int(c)) {
		return
	}
	seen.Set(int(c))

	producer := g.Collection(c).Producer()
	if producer == graph.NoOp {
		bits.Set(int(c))
		return
	}
	if g.Op(producer).Kind() == graph.KindGroupByKey {
		bits.Set(int(c))
		return
	}
	for _, origin := range g.Origins(producer) {
		markSources(g, origin, bits, seen)
	}
}

func bitsIntersect(a, b *collections.Bitset) bool {
	clone := a.Clone()
	clone.And(b)
	return clone.Count() > 0
}
