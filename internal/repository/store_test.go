package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Shivanand-hulikatti/kronos/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// runStoreSuite checks the Store contract. Every test creates its own
// gamers and teams, so stores may be shared between tests.
func runStoreSuite(t *testing.T, s Store) {
	t.Run("gamers", func(t *testing.T) { testGamers(t, s) })
	t.Run("insert team", func(t *testing.T) { testInsertTeam(t, s) })
	t.Run("insert team with owner", func(t *testing.T) { testInsertTeamWithOwner(t, s) })
	t.Run("join", func(t *testing.T) { testJoin(t, s) })
	t.Run("concurrent joins", func(t *testing.T) { testConcurrentJoins(t, s) })
	t.Run("grids", func(t *testing.T) { testGrids(t, s) })
	t.Run("malformed gamer ids", func(t *testing.T) { testMalformedIDs(t, s) })
}

func newGamer(t *testing.T, s Store) *model.Gamer {
	t.Helper()
	g := &model.Gamer{ID: uuid.NewString(), DisplayName: "g-" + uuid.NewString()[:18]}
	require.NoError(t, s.CreateGamer(context.Background(), g))
	return g
}

// newCode returns a ten character code unlikely to collide between runs.
func newCode() string {
	return fmt.Sprintf("T%09d", uuid.New().ID()%1_000_000_000)
}

func newTeam(t *testing.T, s Store, owner *model.Gamer) *model.Team {
	t.Helper()
	team := &model.Team{Code: newCode(), Name: "team", Capacity: model.DefaultCapacity}
	require.NoError(t, s.InsertTeamWithOwner(context.Background(), team, &model.Membership{GamerID: owner.ID}))
	return team
}

func testGamers(t *testing.T, s Store) {
	ctx := context.Background()
	g := newGamer(t, s)
	assert.False(t, g.CreatedAt.IsZero())

	got, err := s.GetGamer(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.DisplayName, got.DisplayName)

	dup := &model.Gamer{ID: uuid.NewString(), DisplayName: "G" + g.DisplayName[1:]}
	assert.ErrorIs(t, s.CreateGamer(ctx, dup), ErrNameTaken)

	_, err = s.GetGamer(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func testInsertTeam(t *testing.T, s Store) {
	ctx := context.Background()
	team := &model.Team{Code: newCode(), Name: "empty", Capacity: model.DefaultCapacity}

	exists, err := s.TeamCodeExists(ctx, team.Code)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.InsertTeam(ctx, team))
	assert.False(t, team.CreatedAt.IsZero())

	exists, err = s.TeamCodeExists(ctx, team.Code)
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := s.GetTeam(ctx, team.Code)
	require.NoError(t, err)
	assert.Equal(t, "empty", got.Name)
	assert.Zero(t, got.MemberCount)

	again := &model.Team{Code: team.Code, Name: "other", Capacity: model.DefaultCapacity}
	assert.ErrorIs(t, s.InsertTeam(ctx, again), ErrDuplicateCode)

	got, err = s.GetTeam(ctx, team.Code)
	require.NoError(t, err)
	assert.Equal(t, "empty", got.Name)

	_, err = s.GetTeam(ctx, newCode())
	assert.ErrorIs(t, err, ErrNotFound)
}

func testInsertTeamWithOwner(t *testing.T, s Store) {
	ctx := context.Background()
	owner := newGamer(t, s)
	team := newTeam(t, s, owner)

	got, err := s.GetTeam(ctx, team.Code)
	require.NoError(t, err)
	assert.Equal(t, 1, got.MemberCount)

	m, err := s.GetMembership(ctx, owner.ID, team.Code)
	require.NoError(t, err)
	assert.Equal(t, model.MemberColors[0], m.Color)

	grid, err := s.LoadGrid(ctx, owner.ID, team.Code)
	require.NoError(t, err)
	assert.Zero(t, grid.Count())

	// unknown owner writes nothing
	ghost := &model.Team{Code: newCode(), Name: "ghost", Capacity: model.DefaultCapacity}
	err = s.InsertTeamWithOwner(ctx, ghost, &model.Membership{GamerID: uuid.NewString()})
	assert.ErrorIs(t, err, ErrGamerNotFound)
	exists, err := s.TeamCodeExists(ctx, ghost.Code)
	require.NoError(t, err)
	assert.False(t, exists)

	// taken code writes nothing
	other := newGamer(t, s)
	clash := &model.Team{Code: team.Code, Name: "clash", Capacity: model.DefaultCapacity}
	err = s.InsertTeamWithOwner(ctx, clash, &model.Membership{GamerID: other.ID})
	assert.ErrorIs(t, err, ErrDuplicateCode)
	_, err = s.GetMembership(ctx, other.ID, team.Code)
	assert.ErrorIs(t, err, ErrNotFound)
}

func testJoin(t *testing.T, s Store) {
	ctx := context.Background()
	owner := newGamer(t, s)
	team := newTeam(t, s, owner)

	g := newGamer(t, s)
	got, joined, err := s.Join(ctx, &model.Membership{GamerID: g.ID, TeamCode: team.Code})
	require.NoError(t, err)
	assert.True(t, joined)
	assert.Equal(t, 2, got.MemberCount)

	m, err := s.GetMembership(ctx, g.ID, team.Code)
	require.NoError(t, err)
	assert.Equal(t, model.MemberColors[1], m.Color)

	got, joined, err = s.Join(ctx, &model.Membership{GamerID: g.ID, TeamCode: team.Code})
	require.NoError(t, err)
	assert.False(t, joined)
	assert.Equal(t, 2, got.MemberCount)

	_, _, err = s.Join(ctx, &model.Membership{GamerID: uuid.NewString(), TeamCode: team.Code})
	assert.ErrorIs(t, err, ErrGamerNotFound)

	_, _, err = s.Join(ctx, &model.Membership{GamerID: g.ID, TeamCode: newCode()})
	assert.ErrorIs(t, err, ErrNotFound)

	for i := 2; i < model.DefaultCapacity; i++ {
		_, joined, err := s.Join(ctx, &model.Membership{GamerID: newGamer(t, s).ID, TeamCode: team.Code})
		require.NoError(t, err)
		require.True(t, joined)
	}

	_, _, err = s.Join(ctx, &model.Membership{GamerID: newGamer(t, s).ID, TeamCode: team.Code})
	assert.ErrorIs(t, err, ErrTeamFull)

	// members can still reach a full team
	got, joined, err = s.Join(ctx, &model.Membership{GamerID: owner.ID, TeamCode: team.Code})
	require.NoError(t, err)
	assert.False(t, joined)
	assert.True(t, got.IsFull())

	members, err := s.ListMembers(ctx, team.Code)
	require.NoError(t, err)
	assert.Len(t, members, model.DefaultCapacity)
	assert.Equal(t, owner.ID, members[0].GamerID)
}

func testConcurrentJoins(t *testing.T, s Store) {
	const extra = 5
	ctx := context.Background()
	team := newTeam(t, s, newGamer(t, s))

	gamers := make([]*model.Gamer, model.DefaultCapacity-1+extra)
	for i := range gamers {
		gamers[i] = newGamer(t, s)
	}

	var (
		mu     sync.Mutex
		joined int
		full   int
	)
	var g errgroup.Group
	for _, gamer := range gamers {
		gamer := gamer
		g.Go(func() error {
			for {
				_, ok, err := s.Join(ctx, &model.Membership{GamerID: gamer.ID, TeamCode: team.Code})
				mu.Lock()
				switch {
				case err == nil && ok:
					joined++
				case errors.Is(err, ErrTeamFull):
					full++
				case errors.Is(err, ErrConflict):
					mu.Unlock()
					continue
				case err != nil:
					mu.Unlock()
					return err
				}
				mu.Unlock()
				return nil
			}
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, model.DefaultCapacity-1, joined)
	assert.Equal(t, extra, full)

	got, err := s.GetTeam(ctx, team.Code)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultCapacity, got.MemberCount)

	members, err := s.ListMembers(ctx, team.Code)
	require.NoError(t, err)
	assert.Len(t, members, model.DefaultCapacity)
}

func testGrids(t *testing.T, s Store) {
	ctx := context.Background()
	owner := newGamer(t, s)
	team := newTeam(t, s, owner)
	mate := newGamer(t, s)
	_, _, err := s.Join(ctx, &model.Membership{GamerID: mate.ID, TeamCode: team.Code})
	require.NoError(t, err)

	require.NoError(t, s.SetGridRange(ctx, owner.ID, team.Code, model.Tuesday, 9, 12, true))
	require.NoError(t, s.SetGridRange(ctx, owner.ID, team.Code, model.Sunday, 23, 24, true))
	require.NoError(t, s.SetGridRange(ctx, mate.ID, team.Code, model.Monday, 0, 24, true))
	require.NoError(t, s.SetGridRange(ctx, mate.ID, team.Code, model.Monday, 12, 13, false))

	g, err := s.LoadGrid(ctx, owner.ID, team.Code)
	require.NoError(t, err)
	assert.Equal(t, []model.Slot{
		{Day: model.Tuesday, Hour: 9}, {Day: model.Tuesday, Hour: 10}, {Day: model.Tuesday, Hour: 11},
		{Day: model.Sunday, Hour: 23},
	}, g.Available())

	stranger := uuid.NewString()
	grids, err := s.LoadGrids(ctx, team.Code, []string{owner.ID, mate.ID, stranger})
	require.NoError(t, err)
	require.Len(t, grids, 2)
	assert.Equal(t, g, grids[owner.ID])
	mateGrid := grids[mate.ID]
	assert.Equal(t, 23, mateGrid.Count())

	empty, err := s.LoadGrids(ctx, team.Code, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	err = s.SetGridRange(ctx, stranger, team.Code, model.Monday, 0, 1, true)
	assert.ErrorIs(t, err, ErrGridNotFound)
	_, err = s.LoadGrid(ctx, stranger, team.Code)
	assert.ErrorIs(t, err, ErrGridNotFound)

	created, err := s.InitGrid(ctx, owner.ID, team.Code)
	require.NoError(t, err)
	assert.False(t, created)
	g, err = s.LoadGrid(ctx, owner.ID, team.Code)
	require.NoError(t, err)
	assert.Equal(t, 4, g.Count(), "InitGrid must not reset an existing grid")

	_, err = s.InitGrid(ctx, stranger, team.Code)
	assert.ErrorIs(t, err, ErrNotFound)
}

func testMalformedIDs(t *testing.T, s Store) {
	ctx := context.Background()
	owner := newGamer(t, s)
	team := newTeam(t, s, owner)
	const bogus = "not-a-uuid"

	_, err := s.GetGamer(ctx, bogus)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetMembership(ctx, bogus, team.Code)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.InitGrid(ctx, bogus, team.Code)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.LoadGrid(ctx, bogus, team.Code)
	assert.ErrorIs(t, err, ErrGridNotFound)
	assert.ErrorIs(t, s.SetGridRange(ctx, bogus, team.Code, model.Monday, 0, 1, true), ErrGridNotFound)

	grids, err := s.LoadGrids(ctx, team.Code, []string{bogus, owner.ID})
	require.NoError(t, err)
	assert.Len(t, grids, 1)
	assert.Contains(t, grids, owner.ID)

	grids, err = s.LoadGrids(ctx, team.Code, []string{bogus})
	require.NoError(t, err)
	assert.Empty(t, grids)
}
