package rewrite

import (
	"testing"

	"github.com/flumeopt/optimizer/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addOne(e any, emit graph.Emit) { emit(e.(int) + 1) }
func double(e any, emit graph.Emit) {
	emit(e.(int))
	emit(e.(int))
}

// Scenario 2: A--p2-->X--p1-->B, no other consumers of X. After fusion:
// A--p1∘p2-->B; X orphaned. f2 = x -> [x, x], f1 = y -> [y+1]. Feeding
// [1, 2] yields [2, 2, 3, 3].
func TestFuseParallelDos_ProducerConsumerFusion(t *testing.T) {
	g := graph.New()
	a := g.AddCollection("int", true)
	x := g.AddCollection("int", false)
	b := g.AddCollection("int", false)

	_, err := g.NewParallelDo(double, a, x)
	require.NoError(t, err)
	_, err = g.NewParallelDo(addOne, x, b)
	require.NoError(t, err)

	v := newVisited(g.NumCollections())
	require.NoError(t, fuseParallelDos(g, v, b))

	fused := g.Op(g.Collection(b).Producer())
	assert.Equal(t, graph.KindParallelDo, fused.Kind())
	assert.Equal(t, a, fused.Origin())
	assert.Empty(t, g.Collection(x).Consumers(), "X must be orphaned")

	var got []int
	fused.Fn()(1, func(e any) { got = append(got, e.(int)) })
	fused.Fn()(2, func(e any) { got = append(got, e.(int)) })
	assert.Equal(t, []int{2, 2, 3, 3}, got)
}

// Scenario 3: A--gbk-->X--combineValues-->Y--parallelDo-->Z. The
// combineValues must not fuse into the downstream ParallelDo.
func TestFuseParallelDos_CombinerGuard(t *testing.T) {
	g := graph.New()
	a := g.AddCollection("kv", true)
	x := g.AddCollection("kv", false)
	y := g.AddCollection("kv", false)
	z := g.AddCollection("kv", false)

	_, err := g.NewGroupByKey(a, x)
	require.NoError(t, err)
	_, err = g.NewCombineValues(identity, x, y)
	require.NoError(t, err)
	_, err = g.NewParallelDo(identity, y, z)
	require.NoError(t, err)

	v := newVisited(g.NumCollections())
	require.NoError(t, fuseParallelDos(g, v, z))

	zProducer := g.Op(g.Collection(z).Producer())
	assert.Equal(t, graph.KindParallelDo, zProducer.Kind())
	assert.Equal(t, y, zProducer.Origin(), "the combineValues at Y must remain unfused")

	yProducer := g.Op(g.Collection(y).Producer())
	assert.Equal(t, graph.KindCombineValues, yProducer.Kind())
	assert.Equal(t, x, yProducer.Origin())
}

func TestFuseParallelDos_RoundTripOfComposition(t *testing.T) {
	g := graph.New()
	a := g.AddCollection("int", true)
	x := g.AddCollection("int", false)
	b := g.AddCollection("int", false)

	_, err := g.NewParallelDo(double, a, x)
	require.NoError(t, err)
	_, err = g.NewParallelDo(addOne, x, b)
	require.NoError(t, err)

	v := newVisited(g.NumCollections())
	require.NoError(t, fuseParallelDos(g, v, b))

	fused := g.Op(g.Collection(b).Producer()).Fn()

	for _, value := range []int{1, 2, 3, 7} {
		var direct []any
		emit := func(e any) { direct = append(direct, e) }
		double(value, func(w any) { addOne(w, emit) })

		var viaFused []any
		fused(value, func(e any) { viaFused = append(viaFused, e) })

		assert.Equal(t, direct, viaFused)
	}
}
