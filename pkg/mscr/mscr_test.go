package mscr

import (
	"testing"

	"github.com/flumeopt/optimizer/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pass(e any, emit graph.Emit) { emit(e) }

func TestBuild_SingleShuffleWithReducerChain(t *testing.T) {
	g := graph.New()
	a := g.AddCollection("kv", true)
	x := g.AddCollection("kv", false)
	y := g.AddCollection("kv", false)

	gbk, err := g.NewGroupByKey(a, x)
	require.NoError(t, err)
	combine, err := g.NewCombineValues(pass, x, y)
	require.NoError(t, err)

	mscrs, err := Build(g, []graph.CollectionID{y})
	require.NoError(t, err)
	require.Len(t, mscrs, 1)

	m := mscrs[0]
	assert.Equal(t, []graph.CollectionID{a}, m.Inputs)
	require.Contains(t, m.OutputChannels, y)
	assert.Equal(t, gbk, m.OutputChannels[y].GroupByKey)
	assert.Equal(t, []graph.OpID{combine}, m.OutputChannels[y].Reducers)
}

func TestBuild_UnionsGroupByKeysSharingSource(t *testing.T) {
	g := graph.New()
	a := g.AddCollection("kv", true)
	x1 := g.AddCollection("kv", false)
	x2 := g.AddCollection("kv", false)
	y1 := g.AddCollection("kv", false)
	y2 := g.AddCollection("kv", false)

	_, err := g.NewGroupByKey(a, x1)
	require.NoError(t, err)
	_, err = g.NewGroupByKey(a, x2)
	require.NoError(t, err)
	_, err = g.NewOneToOneOp(x1, y1)
	require.NoError(t, err)
	_, err = g.NewOneToOneOp(x2, y2)
	require.NoError(t, err)

	mscrs, err := Build(g, []graph.CollectionID{y1, y2})
	require.NoError(t, err)
	require.Len(t, mscrs, 1, "both GroupByKeys read the same source A and must union into one MSCR")

	m := mscrs[0]
	assert.Len(t, m.GroupByKeys, 2)
	assert.Contains(t, m.OutputChannels, y1)
	assert.Contains(t, m.OutputChannels, y2)
}

func TestBuild_SeparatesIndependentShuffles(t *testing.T) {
	g := graph.New()
	a := g.AddCollection("kv", true)
	b := g.AddCollection("kv", true)
	xa := g.AddCollection("kv", false)
	xb := g.AddCollection("kv", false)

	_, err := g.NewGroupByKey(a, xa)
	require.NoError(t, err)
	_, err = g.NewGroupByKey(b, xb)
	require.NoError(t, err)

	mscrs, err := Build(g, []graph.CollectionID{xa, xb})
	require.NoError(t, err)
	assert.Len(t, mscrs, 2)
}

func TestBuild_ChainedMSCRsCrossBoundaryInput(t *testing.T) {
	g := graph.New()
	x := g.AddCollection("kv", true)
	y1 := g.AddCollection("kv", false)
	y2 := g.AddCollection("kv", false)
	z := g.AddCollection("kv", false)

	_, err := g.NewGroupByKey(x, y1)
	require.NoError(t, err)
	_, err = g.NewOneToOneOp(y1, y2)
	require.NoError(t, err)
	_, err = g.NewGroupByKey(y2, z)
	require.NoError(t, err)

	mscrs, err := Build(g, []graph.CollectionID{z})
	require.NoError(t, err)
	require.Len(t, mscrs, 2)

	var upstream, downstream *MSCR
	for _, m := range mscrs {
		if _, ok := m.OutputChannels[z]; ok {
			downstream = m
		} else {
			upstream = m
		}
	}
	require.NotNil(t, upstream)
	require.NotNil(t, downstream)
	assert.Equal(t, []graph.CollectionID{x}, upstream.Inputs)
	assert.Equal(t, []graph.CollectionID{y1}, downstream.Inputs, "downstream MSCR depends on upstream's output")
}
