package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/kronos/internal/logging"
	"github.com/Shivanand-hulikatti/kronos/internal/model"
	"github.com/Shivanand-hulikatti/kronos/internal/repository"
)

// maxTxAttempts is one try plus one retry after repository.ErrConflict.
const maxTxAttempts = 2

// MembershipManager joins gamers to teams under the capacity invariant.
type MembershipManager struct {
	store    repository.Store
	registry *TeamRegistry
	logger   *logging.Logger
}

// NewMembershipManager constructs a MembershipManager.
func NewMembershipManager(store repository.Store, registry *TeamRegistry, logger *logging.Logger) *MembershipManager {
	return &MembershipManager{store: store, registry: registry, logger: logger}
}

// retryConflict runs op again once if it lost a transaction race.
func (m *MembershipManager) retryConflict(ctx context.Context, what string, op func() error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = op()
		if !errors.Is(err, repository.ErrConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		m.logger.Warn("%s: transaction conflict (%d/%d): %v", what, attempt, maxTxAttempts, err)
	}
	m.logger.Error("%s: giving up after %d conflicting attempts", what, maxTxAttempts)
	return fmt.Errorf("%w: %w", ErrConcurrencyConflict, err)
}

// Join adds gamerID to the team. An existing member gets the team back with
// Joined=false and nothing is counted twice; that check runs before the
// capacity check, so members can always reach a full team.
func (m *MembershipManager) Join(ctx context.Context, gamerID, code string) (*model.JoinResult, error) {
	if _, err := m.registry.LookupTeam(ctx, code); err != nil {
		return nil, err
	}

	var result model.JoinResult
	err := m.retryConflict(ctx, "join team "+code, func() error {
		team, joined, err := m.store.Join(ctx, &model.Membership{GamerID: gamerID, TeamCode: code})
		if err != nil {
			return err
		}
		result = model.JoinResult{Team: team, Joined: joined}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrTeamNotFound
		case errors.Is(err, repository.ErrTeamFull):
			return nil, ErrTeamFull
		case errors.Is(err, repository.ErrGamerNotFound):
			return nil, ErrGamerNotFound
		case errors.Is(err, ErrConcurrencyConflict):
			return nil, err
		}
		return nil, fmt.Errorf("join team: %w", err)
	}

	if result.Joined {
		m.logger.Info("gamer %s joined team %s (%d/%d)", gamerID, code, result.Team.MemberCount, result.Team.Capacity)
	}
	return &result, nil
}

// CreateAndJoin creates a team whose first member is the creator. The team,
// the membership and the grid are written together; the creator never hits
// the capacity check.
func (m *MembershipManager) CreateAndJoin(ctx context.Context, creatorID, name string) (*model.Team, error) {
	team, err := m.registry.create(ctx, name, func(ctx context.Context, t *model.Team) error {
		return m.retryConflict(ctx, "create team", func() error {
			owner := &model.Membership{GamerID: creatorID}
			return m.store.InsertTeamWithOwner(ctx, t, owner)
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrGamerNotFound) {
			return nil, ErrGamerNotFound
		}
		return nil, err
	}

	m.logger.Info("gamer %s created team %s (%s)", creatorID, team.Code, team.Name)
	return team, nil
}

// ListMembers returns the team's members in join order.
func (m *MembershipManager) ListMembers(ctx context.Context, code string) ([]model.Membership, error) {
	if _, err := m.registry.LookupTeam(ctx, code); err != nil {
		return nil, err
	}
	members, err := m.store.ListMembers(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// IsMember reports whether gamerID belongs to the team.
func (m *MembershipManager) IsMember(ctx context.Context, gamerID, code string) (bool, error) {
	_, err := m.store.GetMembership(ctx, gamerID, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get membership: %w", err)
	}
	return true, nil
}
