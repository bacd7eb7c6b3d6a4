package dsl

import (
	"encoding/json"
	"fmt"

	"github.com/flumeopt/optimizer/pkg/ferrors"
	"github.com/flumeopt/optimizer/pkg/graph"
)

// FnRegistry resolves the named ParallelDo/CombineValues functions a JSON
// workflow description references by name, since graph.Fn closures cannot
// themselves be serialized.
type FnRegistry map[string]graph.Fn

type jsonCollection struct {
	ID           string `json:"id"`
	ElemType     string `json:"elem_type"`
	Materialized bool   `json:"materialized"`
}

type jsonOp struct {
	Kind    string   `json:"kind"`
	Fn      string   `json:"fn,omitempty"`
	Origin  string   `json:"origin,omitempty"`
	Origins []string `json:"origins,omitempty"`
	Dest    string   `json:"dest,omitempty"`
}

type jsonGraph struct {
	Collections []jsonCollection `json:"collections"`
	Ops         []jsonOp         `json:"ops"`
	Inputs      []string         `json:"inputs"`
	Outputs     []string         `json:"outputs"`
}

// LoadJSON parses a JSON workflow description into a graph, resolving named
// functions against fns. Returns the graph plus the resolved input and
// output collection IDs in the order declared.
func LoadJSON(data []byte, fns FnRegistry) (*graph.Graph, []graph.CollectionID, []graph.CollectionID, error) {
	var jg jsonGraph
	if err := json.Unmarshal(data, &jg); err != nil {
		return nil, nil, nil, ferrors.Wrap(ferrors.KindInvalidArgument, "failed to parse workflow JSON", err)
	}

	g := graph.New()
	byName := make(map[string]graph.CollectionID, len(jg.Collections))
	for _, jc := range jg.Collections {
		if _, exists := byName[jc.ID]; exists {
			return nil, nil, nil, ferrors.New(ferrors.KindInvalidArgument, fmt.Sprintf("duplicate collection id %q", jc.ID))
		}
		byName[jc.ID] = g.AddCollection(graph.ElemType(jc.ElemType), jc.Materialized)
	}

	resolve := func(name string) (graph.CollectionID, error) {
		id, ok := byName[name]
		if !ok {
			return graph.NoCollection, ferrors.New(ferrors.KindInvalidArgument, fmt.Sprintf("unknown collection id %q", name))
		}
		return id, nil
	}

	resolveFn := func(name string) (graph.Fn, error) {
		fn, ok := fns[name]
		if !ok {
			return nil, ferrors.New(ferrors.KindInvalidArgument, fmt.Sprintf("unknown function %q", name))
		}
		return fn, nil
	}

	for _, op := range jg.Ops {
		var err error
		switch op.Kind {
		case "parallel_do":
			err = addUnary(g, op, resolve, resolveFn, g.NewParallelDo)
		case "combine_values":
			err = addUnary(g, op, resolve, resolveFn, g.NewCombineValues)
		case "one_to_one":
			origin, oerr := resolve(op.Origin)
			dest, derr := resolve(op.Dest)
			if oerr != nil {
				err = oerr
			} else if derr != nil {
				err = derr
			} else {
				_, err = g.NewOneToOneOp(origin, dest)
			}
		case "group_by_key":
			origin, oerr := resolve(op.Origin)
			dest, derr := resolve(op.Dest)
			if oerr != nil {
				err = oerr
			} else if derr != nil {
				err = derr
			} else {
				_, err = g.NewGroupByKey(origin, dest)
			}
		case "flatten":
			origins := make([]graph.CollectionID, len(op.Origins))
			for i, name := range op.Origins {
				origins[i], err = resolve(name)
				if err != nil {
					break
				}
			}
			if err == nil {
				var dest graph.CollectionID
				dest, err = resolve(op.Dest)
				if err == nil {
					_, err = g.NewFlatten(origins, dest)
				}
			}
		default:
			err = ferrors.New(ferrors.KindUnsupportedOperator, fmt.Sprintf("unknown op kind %q", op.Kind))
		}
		if err != nil {
			return nil, nil, nil, err
		}
	}

	inputs := make([]graph.CollectionID, len(jg.Inputs))
	for i, name := range jg.Inputs {
		id, err := resolve(name)
		if err != nil {
			return nil, nil, nil, err
		}
		inputs[i] = id
	}

	outputs := make([]graph.CollectionID, len(jg.Outputs))
	for i, name := range jg.Outputs {
		id, err := resolve(name)
		if err != nil {
			return nil, nil, nil, err
		}
		outputs[i] = id
	}

	return g, inputs, outputs, nil
}

func addUnary(
	g *graph.Graph,
	op jsonOp,
	resolve func(string) (graph.CollectionID, error),
	resolveFn func(string) (graph.Fn, error),
	construct func(graph.Fn, graph.CollectionID, graph.CollectionID) (graph.OpID, error),
) error {
	fn, err := resolveFn(op.Fn)
	if err != nil {
		return err
	}
	origin, err := resolve(op.Origin)
	if err != nil {
		return err
	}
	dest, err := resolve(op.Dest)
	if err != nil {
		return err
	}
	_, err = construct(fn, origin, dest)
	return err
}
