package graph

import "github.com/flumeopt/optimizer/pkg/ferrors"

// Graph is the arena that owns every Collection and Op in a lazy
// computation. Handles (CollectionID/OpID) index directly into its slices,
// so edge rewiring during a rewrite pass is a local mutation on two
// endpoints rather than a pointer-graph walk.
type Graph struct {
	collections []*Collection
	ops         []*Op
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{}
}

// AddCollection allocates a new Collection with no producer and no
// consumers, returning its handle.
func (g *Graph) AddCollection(elemType ElemType, materialized bool) CollectionID {
	id := CollectionID(len(g.collections))
	g.collections = append(g.collections, &Collection{
		id:           id,
		elemType:     elemType,
		producer:     NoOp,
		materialized: materialized,
	})
	return id
}

// Collection returns the Collection for id. id must have come from this
// Graph; out-of-range handles panic, the same way an out-of-bounds slice
// index does — a caller passing a foreign handle is a programmer error, not
// a runtime condition to recover from.
func (g *Graph) Collection(id CollectionID) *Collection {
	return g.collections[id]
}

// Op returns the Op for id. See Collection for the handle-validity contract.
func (g *Graph) Op(id OpID) *Op {
	return g.ops[id]
}

// NumCollections returns how many collections the arena holds.
func (g *Graph) NumCollections() int { return len(g.collections) }

// NumOps returns how many ops the arena holds.
func (g *Graph) NumOps() int { return len(g.ops) }

// IsMaterialized reports whether id is a graph boundary.
func (g *Graph) IsMaterialized(id CollectionID) bool {
	return g.collections[id].materialized
}

// Origins returns every upstream collection of op, regardless of variant:
// the single Origin for all kinds except Flatten, whose Origins slice is
// returned directly.
func (g *Graph) Origins(op OpID) []CollectionID {
	o := g.ops[op]
	if o.kind == KindFlatten {
		return o.Origins()
	}
	return []CollectionID{o.origin}
}

// Dests returns every downstream collection of op: the single Dest for all
// kinds except MultipleParallelDo, whose fan-out destinations are returned.
func (g *Graph) Dests(op OpID) []CollectionID {
	o := g.ops[op]
	if o.kind == KindMultipleParallelDo {
		out := make([]CollectionID, len(o.dests))
		for i, md := range o.dests {
			out[i] = md.Dest
		}
		return out
	}
	return []CollectionID{o.dest}
}

// RawOp allocates a new Op record with the given fields and returns its
// handle, without wiring any producer/consumer edges. Rewrite passes use
// this together with AddConsumer/ReplaceProducer to build a replacement op
// whose destination already has a (soon-to-be-discarded) producer — a case
// the strict New* constructors below deliberately reject.
func (g *Graph) RawOp(kind Kind, fn Fn, origin CollectionID, origins []CollectionID, dest CollectionID, dests []MultiDest) OpID {
	id := OpID(len(g.ops))
	g.ops = append(g.ops, &Op{
		id:      id,
		kind:    kind,
		fn:      fn,
		origin:  origin,
		origins: origins,
		dest:    dest,
		dests:   dests,
	})
	return id
}

// AddConsumer appends op to collection's ordered consumer list. Adding an
// op that already consumes collection is a programmer error (invariant:
// ordered, duplicates forbidden).
func (g *Graph) AddConsumer(collection CollectionID, op OpID) error {
	c := g.collections[collection]
	if c.HasConsumer(op) {
		return ferrors.WithCollection(
			ferrors.WithOp(ferrors.New(ferrors.KindGraphInvariant, "op already consumes collection"), op.String()),
			collection.String(),
		)
	}
	c.consumers = append(c.consumers, op)
	return nil
}

// RemoveConsumer removes op from collection's consumer list. Removing an
// op that is not currently a consumer is a programmer error.
func (g *Graph) RemoveConsumer(collection CollectionID, op OpID) error {
	c := g.collections[collection]
	for i, existing := range c.consumers {
		if existing == op {
			c.consumers = append(c.consumers[:i], c.consumers[i+1:]...)
			return nil
		}
	}
	return ferrors.WithCollection(
		ferrors.WithOp(ferrors.New(ferrors.KindGraphInvariant, "op is not a consumer of collection"), op.String()),
		collection.String(),
	)
}

// ReplaceConsumers atomically removes every op in oldOps from collection's
// consumer list and inserts newOp at the position of the first removed op,
// preserving the relative order of every consumer that was not removed.
// This is the primitive sibling-ParallelDo fusion uses to swap several
// individual ParallelDos for one MultipleParallelDo in a single step.
func (g *Graph) ReplaceConsumers(collection CollectionID, oldOps []OpID, newOp OpID) error {
	c := g.collections[collection]
	remove := make(map[OpID]bool, len(oldOps))
	for _, op := range oldOps {
		remove[op] = true
	}

	out := make([]OpID, 0, len(c.consumers)-len(oldOps)+1)
	inserted := false
	for _, existing := range c.consumers {
		if remove[existing] {
			if !inserted {
				out = append(out, newOp)
				inserted = true
			}
			continue
		}
		out = append(out, existing)
	}
	if !inserted {
		return ferrors.WithCollection(
			ferrors.New(ferrors.KindGraphInvariant, "none of the replaced ops consume collection"),
			collection.String(),
		)
	}
	c.consumers = out
	return nil
}

// SetProducer attaches op as the producing op of collection. Attaching a
// second producing op to a collection that already has one is a programmer
// error (invariant 2) and is reported, not silently overwritten — use
// ReplaceProducer for a deliberate, same-step swap.
func (g *Graph) SetProducer(collection CollectionID, op OpID) error {
	c := g.collections[collection]
	if c.producer != NoOp {
		return ferrors.WithCollection(
			ferrors.New(ferrors.KindGraphInvariant, "collection already has a producing op"),
			collection.String(),
		)
	}
	c.producer = op
	return nil
}

// ReplaceProducer unconditionally installs op as collection's producing op
// and returns whatever producer it had before (NoOp if none). Rewrite
// passes use this when the old producer is being discarded in the same
// step, which is not the "second producer" error SetProducer guards
// against.
func (g *Graph) ReplaceProducer(collection CollectionID, op OpID) OpID {
	c := g.collections[collection]
	old := c.producer
	c.producer = op
	return old
}

// DetachOp removes op from the consumer list of every one of its origins.
// Used when a rewrite pass discards an op outright (its destination either
// becomes orphaned or receives a new producer separately).
func (g *Graph) DetachOp(op OpID) error {
	for _, origin := range g.Origins(op) {
		if err := g.RemoveConsumer(origin, op); err != nil {
			return err
		}
	}
	return nil
}

// --- Strict constructors -----------------------------------------------
//
// These are the entry points an external builder (spec §6's PlumeWorkflow)
// uses to construct the initial DAG: every destination must be a fresh
// collection with no existing producer, and every origin/destination pair
// must be distinct (invariant 3, no self-loops). Rewrite passes do not use
// these — they use RawOp plus the edge primitives above, because a rewrite
// frequently installs a replacement producer for a collection that already
// has one (about to be discarded in the same step).

func (g *Graph) checkNoSelfLoop(origins []CollectionID, dest CollectionID) error {
	for _, origin := range origins {
		if origin == dest {
			return ferrors.WithCollection(
				ferrors.New(ferrors.KindGraphInvariant, "op origin and destination must be distinct"),
				dest.String(),
			)
		}
	}
	return nil
}

// NewParallelDo constructs a ParallelDo op and wires its edges strictly.
func (g *Graph) NewParallelDo(fn Fn, origin, dest CollectionID) (OpID, error) {
	return g.newUnary(KindParallelDo, fn, origin, dest)
}

// NewCombineValues constructs a CombineValues op and wires its edges
// strictly. Legality (that origin's producer is a GroupByKey) is the
// caller's responsibility, per spec §3.
func (g *Graph) NewCombineValues(fn Fn, origin, dest CollectionID) (OpID, error) {
	return g.newUnary(KindCombineValues, fn, origin, dest)
}

// NewGroupByKey constructs a GroupByKey op and wires its edges strictly.
func (g *Graph) NewGroupByKey(origin, dest CollectionID) (OpID, error) {
	return g.newUnary(KindGroupByKey, nil, origin, dest)
}

// NewOneToOneOp constructs a transparent structural passthrough op.
func (g *Graph) NewOneToOneOp(origin, dest CollectionID) (OpID, error) {
	return g.newUnary(KindOneToOneOp, nil, origin, dest)
}

func (g *Graph) newUnary(kind Kind, fn Fn, origin, dest CollectionID) (OpID, error) {
	if err := g.checkNoSelfLoop([]CollectionID{origin}, dest); err != nil {
		return NoOp, err
	}
	id := g.RawOp(kind, fn, origin, nil, dest, nil)
	if err := g.AddConsumer(origin, id); err != nil {
		return NoOp, err
	}
	if err := g.SetProducer(dest, id); err != nil {
		return NoOp, err
	}
	return id, nil
}

// NewFlatten constructs a Flatten op over origins and wires its edges
// strictly.
func (g *Graph) NewFlatten(origins []CollectionID, dest CollectionID) (OpID, error) {
	if err := g.checkNoSelfLoop(origins, dest); err != nil {
		return NoOp, err
	}
	id := g.RawOp(KindFlatten, nil, NoCollection, append([]CollectionID(nil), origins...), dest, nil)
	for _, origin := range origins {
		if err := g.AddConsumer(origin, id); err != nil {
			return NoOp, err
		}
	}
	if err := g.SetProducer(dest, id); err != nil {
		return NoOp, err
	}
	return id, nil
}

// NewMultipleParallelDo constructs a MultipleParallelDo op over origin with
// the given fan-out and wires its edges strictly.
func (g *Graph) NewMultipleParallelDo(origin CollectionID, dests []MultiDest) (OpID, error) {
	destIDs := make([]CollectionID, len(dests))
	for i, md := range dests {
		destIDs[i] = md.Dest
	}
	// A MultipleParallelDo has one origin; check every fan-out destination
	// against it for the no-self-loop invariant.
	for _, dest := range destIDs {
		if err := g.checkNoSelfLoop([]CollectionID{origin}, dest); err != nil {
			return NoOp, err
		}
	}
	id := g.RawOp(KindMultipleParallelDo, nil, origin, nil, NoCollection, append([]MultiDest(nil), dests...))
	if err := g.AddConsumer(origin, id); err != nil {
		return NoOp, err
	}
	for _, dest := range destIDs {
		if err := g.SetProducer(dest, id); err != nil {
			return NoOp, err
		}
	}
	return id, nil
}
