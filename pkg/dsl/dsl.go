// Package dsl is a reference builder for the PlumeWorkflow/LazyCollection
// contract the optimizer consumes: a small fluent API over pkg/graph for
// constructing a lazy computation, used by tests and by cmd/planopt to load
// a workflow description from JSON.
package dsl

import (
	"github.com/flumeopt/optimizer/pkg/ferrors"
	"github.com/flumeopt/optimizer/pkg/graph"
)

// PlumeWorkflow lazily materializes a computation graph and reports its
// declared source and sink collections.
type PlumeWorkflow interface {
	Build() (*graph.Graph, error)
	GetInputs() []graph.CollectionID
	GetOutputs() []graph.CollectionID
}

// LazyCollection is the builder-facing view of a collection: whether it is
// materialized, its element type, and (once built) the op that produces it.
type LazyCollection interface {
	ID() graph.CollectionID
	Materialized() bool
	ElemType() graph.ElemType
	Producer() graph.OpID
}

// collectionHandle is the concrete LazyCollection returned by Builder's
// constructors.
type collectionHandle struct {
	id       graph.CollectionID
	elemType graph.ElemType
	g        *graph.Graph
}

func (h collectionHandle) ID() graph.CollectionID   { return h.id }
func (h collectionHandle) Materialized() bool       { return h.g.IsMaterialized(h.id) }
func (h collectionHandle) ElemType() graph.ElemType { return h.g.Collection(h.id).ElemType() }
func (h collectionHandle) Producer() graph.OpID     { return h.g.Collection(h.id).Producer() }

// Builder assembles a lazy computation over pkg/graph and tracks which
// collections were declared as sources (via Source) or sinks (via Output),
// implementing PlumeWorkflow once the declared ops have all been added.
type Builder struct {
	g       *graph.Graph
	inputs  []graph.CollectionID
	outputs []graph.CollectionID
	err     error
}

// New starts a new, empty workflow builder.
func New() *Builder {
	return &Builder{g: graph.New()}
}

// Source declares a new materialized input collection of the given element
// type.
func (b *Builder) Source(elemType graph.ElemType) LazyCollection {
	id := b.g.AddCollection(elemType, true)
	b.inputs = append(b.inputs, id)
	return collectionHandle{id: id, elemType: elemType, g: b.g}
}

// Intermediate declares a new non-materialized collection of the given
// element type, to be wired up as the dest of a subsequent op constructor.
func (b *Builder) Intermediate(elemType graph.ElemType) LazyCollection {
	id := b.g.AddCollection(elemType, false)
	return collectionHandle{id: id, elemType: elemType, g: b.g}
}

// Output marks c as a sink of the workflow.
func (b *Builder) Output(c LazyCollection) {
	b.outputs = append(b.outputs, c.ID())
}

// ParallelDo applies fn over origin's elements into dest.
func (b *Builder) ParallelDo(fn graph.Fn, origin, dest LazyCollection) {
	if b.err != nil {
		return
	}
	_, err := b.g.NewParallelDo(fn, origin.ID(), dest.ID())
	b.err = err
}

// CombineValues applies an associative combiner fn over a GroupByKey's
// shuffled values.
func (b *Builder) CombineValues(fn graph.Fn, origin, dest LazyCollection) {
	if b.err != nil {
		return
	}
	_, err := b.g.NewCombineValues(fn, origin.ID(), dest.ID())
	b.err = err
}

// GroupByKey shuffles origin's key-value elements into dest.
func (b *Builder) GroupByKey(origin, dest LazyCollection) {
	if b.err != nil {
		return
	}
	_, err := b.g.NewGroupByKey(origin.ID(), dest.ID())
	b.err = err
}

// Flatten unions origins into dest.
func (b *Builder) Flatten(origins []LazyCollection, dest LazyCollection) {
	if b.err != nil {
		return
	}
	ids := make([]graph.CollectionID, len(origins))
	for i, o := range origins {
		ids[i] = o.ID()
	}
	_, err := b.g.NewFlatten(ids, dest.ID())
	b.err = err
}

// Build returns the assembled graph, or the first error encountered while
// adding ops.
func (b *Builder) Build() (*graph.Graph, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.inputs) == 0 || len(b.outputs) == 0 {
		return nil, ferrors.New(ferrors.KindInvalidArgument, "workflow declares no inputs or no outputs")
	}
	return b.g, nil
}

// GetInputs returns the declared source collections.
func (b *Builder) GetInputs() []graph.CollectionID { return b.inputs }

// GetOutputs returns the declared sink collections.
func (b *Builder) GetOutputs() []graph.CollectionID { return b.outputs }
