package service

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/kronos/internal/model"
	"github.com/Shivanand-hulikatti/kronos/internal/repository"
)

// AggregationEngine combines member grids into a consensus view.
type AggregationEngine struct {
	store    repository.Store
	registry *TeamRegistry
}

// NewAggregationEngine constructs an AggregationEngine.
func NewAggregationEngine(store repository.Store, registry *TeamRegistry) *AggregationEngine {
	return &AggregationEngine{store: store, registry: registry}
}

// Compute loads every requested grid in one bulk read and aggregates them.
// Repeated ids count once. A gamer without a grid counts as never free.
// It reads without locks, so the view can trail concurrent writes.
func (e *AggregationEngine) Compute(ctx context.Context, code string, gamerIDs []string) (*model.ConsensusView, error) {
	if _, err := e.registry.LookupTeam(ctx, code); err != nil {
		return nil, err
	}

	members := dedupe(gamerIDs)
	grids, err := e.store.LoadGrids(ctx, code, members)
	if err != nil {
		return nil, fmt.Errorf("load grids: %w", err)
	}
	return Aggregate(code, members, grids), nil
}

// Aggregate builds the consensus of members from their grids in
// O(len(members) × 168). AllAvailable is never set for an empty member list.
func Aggregate(code string, members []string, grids map[string]model.Grid) *model.ConsensusView {
	view := &model.ConsensusView{
		TeamCode: code,
		Members:  members,
		Cells:    make([]model.ConsensusCell, model.SlotsPerWeek),
	}
	if view.Members == nil {
		view.Members = []string{}
	}
	for i := range view.Cells {
		view.Cells[i] = model.ConsensusCell{Slot: model.SlotAt(i), AvailableMembers: []string{}}
	}

	for _, id := range members {
		g, ok := grids[id]
		if !ok {
			continue
		}
		for i, free := range g {
			if free {
				view.Cells[i].AvailableMembers = append(view.Cells[i].AvailableMembers, id)
			}
		}
	}

	if len(members) > 0 {
		for i := range view.Cells {
			view.Cells[i].AllAvailable = len(view.Cells[i].AvailableMembers) == len(members)
		}
	}
	return view
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
