package rewrite

import (
	"testing"

	"github.com/flumeopt/optimizer/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario 5: Input A with a ParallelDo to a dead collection D (not an
// output, no further consumers) and a ParallelDo to a live output L. After
// pruning, A's consumers contain only the live ParallelDo.
func TestRemoveUnnecessaryOps_PrunesDeadBranch(t *testing.T) {
	g := graph.New()
	a := g.AddCollection("int", true)
	d := g.AddCollection("int", false)
	l := g.AddCollection("int", false)

	deadOp, err := g.NewParallelDo(identity, a, d)
	require.NoError(t, err)
	liveOp, err := g.NewParallelDo(identity, a, l)
	require.NoError(t, err)

	err = RemoveUnnecessaryOps(g, []graph.CollectionID{a}, []graph.CollectionID{l})
	require.NoError(t, err)

	consumers := g.Collection(a).Consumers()
	assert.Equal(t, []graph.OpID{liveOp}, consumers)
	assert.NotContains(t, consumers, deadOp)
}

func TestRemoveUnnecessaryOps_KeepsEntireBranchLeadingToOutput(t *testing.T) {
	g := graph.New()
	a := g.AddCollection("int", true)
	mid := g.AddCollection("int", false)
	out := g.AddCollection("int", false)

	_, err := g.NewParallelDo(identity, a, mid)
	require.NoError(t, err)
	_, err = g.NewParallelDo(identity, mid, out)
	require.NoError(t, err)

	err = RemoveUnnecessaryOps(g, []graph.CollectionID{a}, []graph.CollectionID{out})
	require.NoError(t, err)

	assert.Len(t, g.Collection(a).Consumers(), 1)
	assert.Len(t, g.Collection(mid).Consumers(), 1)
}

func TestRemoveUnnecessaryOps_DropsFlattenWhenAllOutputsDead(t *testing.T) {
	g := graph.New()
	u := g.AddCollection("int", true)
	w := g.AddCollection("int", true)
	dead := g.AddCollection("int", false)

	_, err := g.NewFlatten([]graph.CollectionID{u, w}, dead)
	require.NoError(t, err)

	err = RemoveUnnecessaryOps(g, []graph.CollectionID{u, w}, []graph.CollectionID{})
	require.NoError(t, err)

	assert.Empty(t, g.Collection(u).Consumers())
	assert.Empty(t, g.Collection(w).Consumers())
}

func TestRemoveUnnecessaryOps_MultipleParallelDoRequiresEverySiblingDead(t *testing.T) {
	g := graph.New()
	a := g.AddCollection("int", true)
	live := g.AddCollection("int", false)
	dead := g.AddCollection("int", false)

	mpd := g.RawOp(graph.KindMultipleParallelDo, nil, a, nil, graph.NoCollection,
		[]graph.MultiDest{{Fn: identity, Dest: live}, {Fn: identity, Dest: dead}})
	require.NoError(t, g.AddConsumer(a, mpd))
	require.NoError(t, g.SetProducer(live, mpd))
	require.NoError(t, g.SetProducer(dead, mpd))

	err := RemoveUnnecessaryOps(g, []graph.CollectionID{a}, []graph.CollectionID{live})
	require.NoError(t, err)

	assert.Len(t, g.Collection(a).Consumers(), 1, "MultipleParallelDo survives because one branch is live")
}
