package planstore

import (
	"context"
	"testing"

	"github.com/flumeopt/optimizer/pkg/graph"
	"github.com/flumeopt/optimizer/pkg/mscr"
	"github.com/flumeopt/optimizer/pkg/optimizer"
	"github.com/flumeopt/optimizer/pkg/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := NewDB(&Config{Path: ":memory:"})
	require.NoError(t, err)
	return NewStore(db)
}

func samplePlan() *optimizer.Plan {
	m1 := &mscr.MSCR{
		ID:     1,
		Inputs: []graph.CollectionID{0},
		OutputChannels: map[graph.CollectionID]*mscr.OutputChannel{
			1: {Output: 1, GroupByKey: 0, Reducers: []graph.OpID{1}},
		},
	}
	m2 := &mscr.MSCR{
		ID:     2,
		Inputs: []graph.CollectionID{1},
		OutputChannels: map[graph.CollectionID]*mscr.OutputChannel{
			2: {Output: 2, GroupByKey: 2},
		},
	}
	stage1 := &scheduler.ExecutionStep{MSCRs: []*mscr.MSCR{m2}}
	stage0 := &scheduler.ExecutionStep{MSCRs: []*mscr.MSCR{m1}, NextStep: stage1}
	return &optimizer.Plan{MSCRs: []*mscr.MSCR{m1, m2}, Stages: stage0}
}

func TestStore_GetMissReportsNotOK(t *testing.T) {
	s := newTestStore(t)
	plan, ok, err := s.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, plan)
}

func TestStore_PutThenGetRoundTrips(t *testing.T) {
	s := newTestStore(t)
	want := samplePlan()

	require.NoError(t, s.Put(context.Background(), "k1", want))

	got, ok, err := s.Get(context.Background(), "k1")
	require.NoError(t, err)
	require.True(t, ok)

	require.Len(t, got.MSCRs, 2)
	require.NotNil(t, got.Stages)
	assert.Equal(t, 1, got.Stages.MSCRs[0].ID)
	require.NotNil(t, got.Stages.NextStep)
	assert.Equal(t, 2, got.Stages.NextStep.MSCRs[0].ID)
	assert.Nil(t, got.Stages.NextStep.NextStep)

	var y1 *mscr.MSCR
	for _, m := range got.MSCRs {
		if m.ID == 1 {
			y1 = m
		}
	}
	require.NotNil(t, y1)
	require.Contains(t, y1.OutputChannels, graph.CollectionID(1))
	assert.Equal(t, []graph.OpID{1}, y1.OutputChannels[graph.CollectionID(1)].Reducers)
}

func TestStore_PutOverwritesExistingKey(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put(context.Background(), "k1", samplePlan()))

	second := samplePlan()
	second.MSCRs[0].ID = 99
	require.NoError(t, s.Put(context.Background(), "k1", second))

	got, ok, err := s.Get(context.Background(), "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 99, got.MSCRs[0].ID)
}
