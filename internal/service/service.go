// Package service implements the team scheduling core: team codes, capacity
// limited membership, per-member availability grids and their aggregation.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/kronos/internal/logging"
	"github.com/Shivanand-hulikatti/kronos/internal/model"
	"github.com/Shivanand-hulikatti/kronos/internal/repository"
	"github.com/google/uuid"
)

const maxNameLength = 80

// Scheduler is the entry point used by the HTTP layer. It validates input
// and orchestrates the registry, membership, grid and aggregation components.
type Scheduler struct {
	store    repository.Store
	registry *TeamRegistry
	members  *MembershipManager
	grids    *AvailabilityGrid
	engine   *AggregationEngine
	logger   *logging.Logger
}

// NewScheduler wires all components around one store.
func NewScheduler(store repository.Store, logger *logging.Logger) *Scheduler {
	registry := NewTeamRegistry(store, NewCodeGenerator(store), logger)
	members := NewMembershipManager(store, registry, logger)
	return &Scheduler{
		store:    store,
		registry: registry,
		members:  members,
		grids:    NewAvailabilityGrid(store, members, logger),
		engine:   NewAggregationEngine(store, registry),
		logger:   logger,
	}
}

// RegisterGamer creates a gamer with a unique display name.
func (s *Scheduler) RegisterGamer(ctx context.Context, req model.RegisterGamerRequest) (*model.Gamer, error) {
	name, err := cleanName(req.DisplayName, "display_name")
	if err != nil {
		return nil, err
	}

	g := &model.Gamer{ID: uuid.NewString(), DisplayName: name}
	if err := s.store.CreateGamer(ctx, g); err != nil {
		if errors.Is(err, repository.ErrNameTaken) {
			return nil, ErrNameTaken
		}
		return nil, fmt.Errorf("register gamer: %w", err)
	}
	return g, nil
}

// GetGamer returns a gamer by id.
func (s *Scheduler) GetGamer(ctx context.Context, id string) (*model.Gamer, error) {
	id, err := cleanGamerID(id)
	if err != nil {
		return nil, err
	}
	g, err := s.store.GetGamer(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGamerNotFound
		}
		return nil, fmt.Errorf("get gamer: %w", err)
	}
	return g, nil
}

// CreateAndJoin creates a team named teamName with gamerID as its first member.
func (s *Scheduler) CreateAndJoin(ctx context.Context, gamerID, teamName string) (*model.Team, error) {
	gamerID, err := cleanGamerID(gamerID)
	if err != nil {
		return nil, err
	}
	name, err := cleanName(teamName, "team name")
	if err != nil {
		return nil, err
	}
	return s.members.CreateAndJoin(ctx, gamerID, name)
}

// Join adds gamerID to the team with the given code.
func (s *Scheduler) Join(ctx context.Context, gamerID, code string) (*model.JoinResult, error) {
	gamerID, err := cleanGamerID(gamerID)
	if err != nil {
		return nil, err
	}
	code, err = cleanCode(code)
	if err != nil {
		return nil, err
	}
	return s.members.Join(ctx, gamerID, code)
}

// GetTeam returns a team and its members.
func (s *Scheduler) GetTeam(ctx context.Context, code string) (*model.TeamDetail, error) {
	code, err := cleanCode(code)
	if err != nil {
		return nil, err
	}
	team, err := s.registry.LookupTeam(ctx, code)
	if err != nil {
		return nil, err
	}
	members, err := s.store.ListMembers(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	if members == nil {
		members = []model.Membership{}
	}
	return &model.TeamDetail{Team: team, Members: members}, nil
}

// ListMembers returns the team's members in join order.
func (s *Scheduler) ListMembers(ctx context.Context, code string) ([]model.Membership, error) {
	code, err := cleanCode(code)
	if err != nil {
		return nil, err
	}
	return s.members.ListMembers(ctx, code)
}

// SetAvailability marks [start, stop) on day for gamerID in the team.
func (s *Scheduler) SetAvailability(ctx context.Context, gamerID, code string, day model.Weekday, start, stop int, available bool) error {
	gamerID, err := cleanGamerID(gamerID)
	if err != nil {
		return err
	}
	code, err = cleanCode(code)
	if err != nil {
		return err
	}
	return s.grids.SetRange(ctx, gamerID, code, day, start, stop, available)
}

// GetAvailability returns gamerID's grid for the team.
func (s *Scheduler) GetAvailability(ctx context.Context, gamerID, code string) (model.Grid, error) {
	gamerID, err := cleanGamerID(gamerID)
	if err != nil {
		return model.Grid{}, err
	}
	code, err = cleanCode(code)
	if err != nil {
		return model.Grid{}, err
	}
	return s.grids.GetGrid(ctx, gamerID, code)
}

// GetConsensus aggregates the grids of gamerIDs within the team.
func (s *Scheduler) GetConsensus(ctx context.Context, code string, gamerIDs []string) (*model.ConsensusView, error) {
	code, err := cleanCode(code)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(gamerIDs))
	for _, id := range gamerIDs {
		clean, err := cleanGamerID(id)
		if err != nil {
			return nil, err
		}
		ids = append(ids, clean)
	}
	return s.engine.Compute(ctx, code, ids)
}

// GetTeamConsensus aggregates the grids of every current member.
func (s *Scheduler) GetTeamConsensus(ctx context.Context, code string) (*model.ConsensusView, error) {
	members, err := s.ListMembers(ctx, code)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.GamerID)
	}
	return s.engine.Compute(ctx, strings.TrimSpace(code), ids)
}

func cleanName(name, field string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: %s is required", ErrValidation, field)
	}
	if len(name) > maxNameLength {
		return "", fmt.Errorf("%w: %s cannot exceed %d characters", ErrValidation, field, maxNameLength)
	}
	return name, nil
}

// cleanGamerID returns the canonical form of a gamer UUID.
func cleanGamerID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: gamer id is required", ErrValidation)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: gamer id is not a valid uuid", ErrValidation)
	}
	return parsed.String(), nil
}

func cleanCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("%w: team code is required", ErrValidation)
	}
	return code, nil
}
