// Package scheduler levelizes a set of MSCRs into dependency-respecting
// stages and drives them stage-by-stage, fanning the MSCRs within a stage
// out over a worker pool since they share no data dependency.
package scheduler

import (
	"sort"

	"github.com/flumeopt/optimizer/pkg/ferrors"
	"github.com/flumeopt/optimizer/pkg/graph"
	"github.com/flumeopt/optimizer/pkg/mscr"
)

// ExecutionStep is one stage of the plan: the MSCRs that can run
// concurrently at this point, and the stage that must follow it.
type ExecutionStep struct {
	MSCRs    []*mscr.MSCR
	NextStep *ExecutionStep
}

// Schedule orders mscrs into a chain of ExecutionSteps such that every MSCR
// appears in a stage strictly after every MSCR producing one of its inputs.
// An MSCR with no such producer — every one of its Inputs is a declared
// graph input rather than another MSCR's output — is eligible for stage 0;
// this is equivalent to spec's "beginning MSCRs: those whose input set
// intersects I" since a collection with no MSCR producer is, by
// construction, a declared input.
//
// Returns KindInvariantViolated if a pass completes without scheduling any
// MSCR while some remain unscheduled, which can only happen if the MSCRs'
// Inputs/OutputChannels describe a cycle.
func Schedule(mscrs []*mscr.MSCR) (*ExecutionStep, error) {
	producedBy := make(map[graph.CollectionID]*mscr.MSCR)
	for _, m := range mscrs {
		for out := range m.OutputChannels {
			producedBy[out] = m
		}
	}

	deps := make(map[*mscr.MSCR]map[*mscr.MSCR]bool, len(mscrs))
	for _, m := range mscrs {
		for _, in := range m.Inputs {
			producer, ok := producedBy[in]
			if !ok || producer == m {
				continue
			}
			if deps[m] == nil {
				deps[m] = make(map[*mscr.MSCR]bool)
			}
			deps[m][producer] = true
		}
	}

	scheduled := make(map[*mscr.MSCR]bool, len(mscrs))
	remaining := make([]*mscr.MSCR, len(mscrs))
	copy(remaining, mscrs)
	sort.Slice(remaining, func(i, j int) bool { return remaining[i].ID < remaining[j].ID })

	var head, tail *ExecutionStep
	for len(remaining) > 0 {
		var thisStage, stillRemaining []*mscr.MSCR
		for _, m := range remaining {
			ready := true
			for dep := range deps[m] {
				if !scheduled[dep] {
					ready = false
					break
				}
			}
			if ready {
				thisStage = append(thisStage, m)
			} else {
				stillRemaining = append(stillRemaining, m)
			}
		}
		if len(thisStage) == 0 {
			return nil, ferrors.New(ferrors.KindInvariantViolated,
				"scheduler made no progress: MSCR dependency graph has a cycle")
		}

		sort.Slice(thisStage, func(i, j int) bool { return thisStage[i].ID < thisStage[j].ID })
		for _, m := range thisStage {
			scheduled[m] = true
		}

		step := &ExecutionStep{MSCRs: thisStage}
		if head == nil {
			head = step
		} else {
			tail.NextStep = step
		}
		tail = step
		remaining = stillRemaining
	}

	return head, nil
}
