package planstore

import (
	"github.com/flumeopt/optimizer/pkg/graph"
	"github.com/flumeopt/optimizer/pkg/mscr"
	"github.com/flumeopt/optimizer/pkg/optimizer"
	"github.com/flumeopt/optimizer/pkg/scheduler"
)

// planDTO is a JSON-safe projection of optimizer.Plan: CollectionID/OpID map
// keys become ordered slices since encoding/json only supports string map
// keys, and the ExecutionStep chain becomes an ordered list of MSCR-ID
// stages so it can be rebuilt against the rehydrated MSCR objects.
type planDTO struct {
	MSCRs  []mscrDTO `json:"mscrs"`
	Stages [][]int   `json:"stages"`
}

type mscrDTO struct {
	ID             int                  `json:"id"`
	GroupByKeys    []graph.OpID         `json:"group_by_keys"`
	Inputs         []graph.CollectionID `json:"inputs"`
	OutputChannels []outputChannelDTO   `json:"output_channels"`
}

type outputChannelDTO struct {
	Output     graph.CollectionID `json:"output"`
	GroupByKey graph.OpID         `json:"group_by_key"`
	Reducers   []graph.OpID       `json:"reducers"`
}

func toDTO(plan *optimizer.Plan) planDTO {
	dto := planDTO{MSCRs: make([]mscrDTO, len(plan.MSCRs))}
	for i, m := range plan.MSCRs {
		channels := make([]outputChannelDTO, 0, len(m.OutputChannels))
		for _, oc := range m.OutputChannels {
			channels = append(channels, outputChannelDTO{
				Output:     oc.Output,
				GroupByKey: oc.GroupByKey,
				Reducers:   oc.Reducers,
			})
		}
		dto.MSCRs[i] = mscrDTO{
			ID:             m.ID,
			GroupByKeys:    m.GroupByKeys,
			Inputs:         m.Inputs,
			OutputChannels: channels,
		}
	}

	for step := plan.Stages; step != nil; step = step.NextStep {
		ids := make([]int, len(step.MSCRs))
		for i, m := range step.MSCRs {
			ids[i] = m.ID
		}
		dto.Stages = append(dto.Stages, ids)
	}

	return dto
}

func fromDTO(dto planDTO) *optimizer.Plan {
	byID := make(map[int]*mscr.MSCR, len(dto.MSCRs))
	mscrs := make([]*mscr.MSCR, len(dto.MSCRs))
	for i, md := range dto.MSCRs {
		channels := make(map[graph.CollectionID]*mscr.OutputChannel, len(md.OutputChannels))
		for _, oc := range md.OutputChannels {
			channels[oc.Output] = &mscr.OutputChannel{
				Output:     oc.Output,
				GroupByKey: oc.GroupByKey,
				Reducers:   oc.Reducers,
			}
		}
		m := &mscr.MSCR{
			ID:             md.ID,
			GroupByKeys:    md.GroupByKeys,
			Inputs:         md.Inputs,
			OutputChannels: channels,
		}
		mscrs[i] = m
		byID[m.ID] = m
	}

	var head, tail *scheduler.ExecutionStep
	for _, ids := range dto.Stages {
		stageMSCRs := make([]*mscr.MSCR, len(ids))
		for i, id := range ids {
			stageMSCRs[i] = byID[id]
		}
		step := &scheduler.ExecutionStep{MSCRs: stageMSCRs}
		if head == nil {
			head = step
		} else {
			tail.NextStep = step
		}
		tail = step
	}

	return &optimizer.Plan{MSCRs: mscrs, Stages: head}
}
