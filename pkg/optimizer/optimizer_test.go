package optimizer

import (
	"context"
	"testing"

	"github.com/flumeopt/optimizer/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func double(e any, emit graph.Emit) { emit(e.(int) * 2) }
func pass(e any, emit graph.Emit)   { emit(e) }

func TestOptimize_FullPipelineProducesSingleStagePlan(t *testing.T) {
	g := graph.New()
	a := g.AddCollection("kv", true)
	x := g.AddCollection("kv", false)
	y := g.AddCollection("kv", false)

	_, err := g.NewGroupByKey(a, x)
	require.NoError(t, err)
	_, err = g.NewCombineValues(pass, x, y)
	require.NoError(t, err)

	plan, err := Optimize(context.Background(), g, []graph.CollectionID{a}, []graph.CollectionID{y}, nil)
	require.NoError(t, err)

	require.Len(t, plan.MSCRs, 1)
	require.NotNil(t, plan.Stages)
	assert.Len(t, plan.Stages.MSCRs, 1)
	assert.Nil(t, plan.Stages.NextStep)
	assert.Contains(t, plan.MSCRs[0].OutputChannels, y)
}

func TestOptimize_TwoStagePipeline(t *testing.T) {
	g := graph.New()
	x := g.AddCollection("kv", true)
	y1 := g.AddCollection("kv", false)
	z := g.AddCollection("kv", false)

	_, err := g.NewGroupByKey(x, y1)
	require.NoError(t, err)
	_, err = g.NewGroupByKey(y1, z)
	require.NoError(t, err)

	plan, err := Optimize(context.Background(), g, []graph.CollectionID{x}, []graph.CollectionID{z}, nil)
	require.NoError(t, err)

	require.NotNil(t, plan.Stages)
	require.NotNil(t, plan.Stages.NextStep)
	assert.Nil(t, plan.Stages.NextStep.NextStep)
}

type fakeCache struct {
	plan *Plan
	gets int
	puts int
}

func (c *fakeCache) Get(ctx context.Context, key string) (*Plan, bool, error) {
	c.gets++
	if c.plan == nil {
		return nil, false, nil
	}
	return c.plan, true, nil
}

func (c *fakeCache) Put(ctx context.Context, key string, plan *Plan) error {
	c.puts++
	c.plan = plan
	return nil
}

func TestOptimize_PopulatesAndConsultsCache(t *testing.T) {
	buildGraph := func() (*graph.Graph, graph.CollectionID, graph.CollectionID) {
		g := graph.New()
		a := g.AddCollection("kv", true)
		b := g.AddCollection("kv", false)
		_, err := g.NewGroupByKey(a, b)
		require.NoError(t, err)
		return g, a, b
	}

	cache := &fakeCache{}

	g1, a1, b1 := buildGraph()
	plan1, err := Optimize(context.Background(), g1, []graph.CollectionID{a1}, []graph.CollectionID{b1}, &Options{Cache: cache, CacheKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.puts)
	assert.Equal(t, 1, cache.gets)

	g2, a2, b2 := buildGraph()
	plan2, err := Optimize(context.Background(), g2, []graph.CollectionID{a2}, []graph.CollectionID{b2}, &Options{Cache: cache, CacheKey: "k"})
	require.NoError(t, err)
	assert.Same(t, plan1, plan2)
	assert.Equal(t, 2, cache.gets)
	assert.Equal(t, 1, cache.puts, "second call should hit the cache, not rebuild")
}
