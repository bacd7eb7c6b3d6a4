package graph

// Emit is the callback a ParallelDo-family function invokes, once per
// element it wants to produce downstream.
type Emit func(element any)

// Fn is an opaque, emitter-based, user-supplied transform: (element, emit).
// The optimizer never calls it and never inspects it beyond composing it
// with other Fns during fusion — it is an opaque callable, per spec §1.
type Fn func(element any, emit Emit)

// Kind discriminates the deferred-op variants described in spec §3.
type Kind int

const (
	// KindParallelDo is an element-wise transform: Fn applied per element.
	KindParallelDo Kind = iota
	// KindCombineValues is a ParallelDo refinement that combines values
	// per key; legal only directly downstream of a GroupByKey.
	KindCombineValues
	// KindGroupByKey shuffles pairs by key into key->sequence pairs.
	KindGroupByKey
	// KindFlatten is the set-theoretic union of same-typed collections.
	KindFlatten
	// KindMultipleParallelDo fans one input out to many independent
	// transforms; it is the product of sibling ParallelDo fusion.
	KindMultipleParallelDo
	// KindOneToOneOp is a structural passthrough the framework inserts;
	// every rewrite treats it as transparent.
	KindOneToOneOp
)

func (k Kind) String() string {
	switch k {
	case KindParallelDo:
		return "ParallelDo"
	case KindCombineValues:
		return "CombineValues"
	case KindGroupByKey:
		return "GroupByKey"
	case KindFlatten:
		return "Flatten"
	case KindMultipleParallelDo:
		return "MultipleParallelDo"
	case KindOneToOneOp:
		return "OneToOneOp"
	default:
		return "Unknown"
	}
}

// IsParallelDoLike reports whether k is ParallelDo or its CombineValues
// refinement — the two variants rewrite passes match identically except
// where CombineValues is explicitly distinguished (spec §3).
func (k Kind) IsParallelDoLike() bool {
	return k == KindParallelDo || k == KindCombineValues
}

// MultiDest is one entry of a MultipleParallelDo's dests map: a function
// paired with the collection it feeds. Represented as an ordered slice
// rather than a Go map because Fn values are not comparable, and because
// sibling fusion must preserve the source order of the ops it aggregates.
type MultiDest struct {
	Fn   Fn
	Dest CollectionID
}

// Op is a single deferred-op node: a tagged variant over the six kinds in
// spec §3. Only the fields relevant to Kind are populated; see the per-kind
// accessor methods.
type Op struct {
	id   OpID
	kind Kind

	fn      Fn             // ParallelDo, CombineValues (nil for OneToOneOp)
	origin  CollectionID   // ParallelDo, CombineValues, GroupByKey, OneToOneOp, MultipleParallelDo
	origins []CollectionID // Flatten only
	dest    CollectionID   // ParallelDo, CombineValues, GroupByKey, Flatten, OneToOneOp
	dests   []MultiDest    // MultipleParallelDo only
}

// ID returns the op's stable handle.
func (o *Op) ID() OpID { return o.id }

// Kind returns the op's variant tag.
func (o *Op) Kind() Kind { return o.kind }

// Fn returns the element-transform function for ParallelDo/CombineValues.
func (o *Op) Fn() Fn { return o.fn }

// Origin returns the single upstream collection for every variant except
// Flatten (use Origins) and MultipleParallelDo, whose single origin is also
// available here.
func (o *Op) Origin() CollectionID { return o.origin }

// Origins returns Flatten's ordered list of upstream collections.
func (o *Op) Origins() []CollectionID {
	out := make([]CollectionID, len(o.origins))
	copy(out, o.origins)
	return out
}

// Dest returns the single downstream collection for every variant except
// MultipleParallelDo (use Dests).
func (o *Op) Dest() CollectionID { return o.dest }

// Dests returns MultipleParallelDo's function->destination fan-out, in the
// order sibling fusion discovered the original ParallelDos.
func (o *Op) Dests() []MultiDest {
	out := make([]MultiDest, len(o.dests))
	copy(out, o.dests)
	return out
}
