package rewrite

import "github.com/flumeopt/optimizer/pkg/graph"

// RemoveUnnecessaryOps prunes every branch, walked top-down from each input,
// that does not reach any of outputs. A single memo is shared across all
// input roots: a collection's dead/alive verdict does not depend on which
// input reached it, and sharing the memo is what lets a multi-origin
// Flatten get dropped from every one of its origins' consumer lists as each
// origin's owning input is walked in turn.
func RemoveUnnecessaryOps(g *graph.Graph, inputs, outputs []graph.CollectionID) error {
	outputSet := make(map[graph.CollectionID]bool, len(outputs))
	for _, out := range outputs {
		outputSet[out] = true
	}

	memo := make(map[graph.CollectionID]bool)
	for _, in := range inputs {
		if _, err := removeDead(g, memo, in, outputSet); err != nil {
			return err
		}
	}
	return nil
}

func removeDead(g *graph.Graph, memo map[graph.CollectionID]bool, c graph.CollectionID, outputs map[graph.CollectionID]bool) (bool, error) {
	if dead, ok := memo[c]; ok {
		return dead, nil
	}

	consumers := g.Collection(c).Consumers()
	if len(consumers) == 0 {
		dead := !outputs[c]
		memo[c] = dead
		return dead, nil
	}

	var toDrop []graph.OpID
	for _, opID := range consumers {
		op := g.Op(opID)

		var dead bool
		if op.Kind() == graph.KindMultipleParallelDo {
			dead = true
			for _, dest := range g.Dests(opID) {
				d, err := removeDead(g, memo, dest, outputs)
				if err != nil {
					return false, err
				}
				if !d {
					dead = false
				}
			}
		} else {
			var err error
			dead, err = removeDead(g, memo, op.Dest(), outputs)
			if err != nil {
				return false, err
			}
		}

		if dead {
			toDrop = append(toDrop, opID)
		}
	}

	for _, opID := range toDrop {
		if err := g.RemoveConsumer(c, opID); err != nil {
			return false, err
		}
	}

	dead := len(g.Collection(c).Consumers()) == 0
	memo[c] = dead
	return dead, nil
}
