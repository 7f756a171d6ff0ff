package mockrepository

import (
	"context"

	"github.com/Shivanand-hulikatti/kronos/internal/model"
	"github.com/stretchr/testify/mock"
)

type Store struct {
	mock.Mock
}

func (s *Store) CreateGamer(ctx context.Context, g *model.Gamer) error {
	args := s.Called(ctx, g)
	return args.Error(0)
}

func (s *Store) GetGamer(ctx context.Context, id string) (*model.Gamer, error) {
	args := s.Called(ctx, id)

	var g *model.Gamer
	if args.Get(0) != nil {
		g = args.Get(0).(*model.Gamer)
	}
	return g, args.Error(1)
}

func (s *Store) TeamCodeExists(ctx context.Context, code string) (bool, error) {
	args := s.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (s *Store) InsertTeam(ctx context.Context, t *model.Team) error {
	args := s.Called(ctx, t)
	return args.Error(0)
}

func (s *Store) InsertTeamWithOwner(ctx context.Context, t *model.Team, owner *model.Membership) error {
	args := s.Called(ctx, t, owner)
	return args.Error(0)
}

func (s *Store) GetTeam(ctx context.Context, code string) (*model.Team, error) {
	args := s.Called(ctx, code)

	var t *model.Team
	if args.Get(0) != nil {
		t = args.Get(0).(*model.Team)
	}
	return t, args.Error(1)
}

func (s *Store) Join(ctx context.Context, m *model.Membership) (*model.Team, bool, error) {
	args := s.Called(ctx, m)

	var t *model.Team
	if args.Get(0) != nil {
		t = args.Get(0).(*model.Team)
	}
	return t, args.Bool(1), args.Error(2)
}

func (s *Store) GetMembership(ctx context.Context, gamerID, code string) (*model.Membership, error) {
	args := s.Called(ctx, gamerID, code)

	var m *model.Membership
	if args.Get(0) != nil {
		m = args.Get(0).(*model.Membership)
	}
	return m, args.Error(1)
}

func (s *Store) ListMembers(ctx context.Context, code string) ([]model.Membership, error) {
	args := s.Called(ctx, code)

	var r []model.Membership
	if args.Get(0) != nil {
		r = args.Get(0).([]model.Membership)
	}
	return r, args.Error(1)
}

func (s *Store) InitGrid(ctx context.Context, gamerID, code string) (bool, error) {
	args := s.Called(ctx, gamerID, code)
	return args.Bool(0), args.Error(1)
}

func (s *Store) LoadGrid(ctx context.Context, gamerID, code string) (model.Grid, error) {
	args := s.Called(ctx, gamerID, code)

	var g model.Grid
	if args.Get(0) != nil {
		g = args.Get(0).(model.Grid)
	}
	return g, args.Error(1)
}

func (s *Store) LoadGrids(ctx context.Context, code string, gamerIDs []string) (map[string]model.Grid, error) {
	args := s.Called(ctx, code, gamerIDs)

	var r map[string]model.Grid
	if args.Get(0) != nil {
		r = args.Get(0).(map[string]model.Grid)
	}
	return r, args.Error(1)
}

func (s *Store) SetGridRange(ctx context.Context, gamerID, code string, day model.Weekday, start, stop int, v bool) error {
	args := s.Called(ctx, gamerID, code, day, start, stop, v)
	return args.Error(0)
}
