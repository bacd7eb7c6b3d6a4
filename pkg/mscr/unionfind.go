package mscr

import "github.com/flumeopt/optimizer/pkg/graph"

// unionFind clusters GroupByKey ops that share an upstream source
// collection into the same MSCR (spec §4.4 step 2).
type unionFind struct {
	parent map[graph.OpID]graph.OpID
}

func newUnionFind(ids []graph.OpID) *unionFind {
	parent := make(map[graph.OpID]graph.OpID, len(ids))
	for _, id := range ids {
		parent[id] = id
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(x graph.OpID) graph.OpID {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b graph.OpID) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[rb] = ra
	}
}
