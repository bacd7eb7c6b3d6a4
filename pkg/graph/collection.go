package graph

// ElemType is an opaque element-type descriptor. The optimizer never
// inspects it beyond equality — it exists so rewrites can preserve invariant 5
// (a replacement op's destination type equals the type of the op it
// replaces) and so a real builder can carry whatever type information its
// host language needs.
type ElemType string

// Collection represents a lazy parallel collection (spec §3). At most one op
// produces it; any number of ops consume it, in a stable order.
type Collection struct {
	id           CollectionID
	elemType     ElemType
	producer     OpID
	consumers    []OpID
	materialized bool
}

// ID returns the collection's stable handle.
func (c *Collection) ID() CollectionID { return c.id }

// ElemType returns the collection's element-type descriptor.
func (c *Collection) ElemType() ElemType { return c.elemType }

// Materialized reports whether this collection is a graph boundary: a user
// input, a named output, or an already-computed result. Rewrites never
// traverse past a materialized collection.
func (c *Collection) Materialized() bool { return c.materialized }

// Producer returns the op that produces this collection, or NoOp if the
// collection is an input (no producer).
func (c *Collection) Producer() OpID { return c.producer }

// Consumers returns the ordered list of ops that read this collection. The
// returned slice is a copy; callers must not mutate graph state through it.
func (c *Collection) Consumers() []OpID {
	out := make([]OpID, len(c.consumers))
	copy(out, c.consumers)
	return out
}

// HasConsumer reports whether op is already a consumer of this collection.
func (c *Collection) HasConsumer(op OpID) bool {
	for _, existing := range c.consumers {
		if existing == op {
			return true
		}
	}
	return false
}
