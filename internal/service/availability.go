package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/kronos/internal/logging"
	"github.com/Shivanand-hulikatti/kronos/internal/model"
	"github.com/Shivanand-hulikatti/kronos/internal/repository"
)

// AvailabilityGrid reads and writes a member's weekly grid.
type AvailabilityGrid struct {
	store   repository.Store
	members *MembershipManager
	logger  *logging.Logger
}

// NewAvailabilityGrid constructs an AvailabilityGrid.
func NewAvailabilityGrid(store repository.Store, members *MembershipManager, logger *logging.Logger) *AvailabilityGrid {
	return &AvailabilityGrid{store: store, members: members, logger: logger}
}

// Initialize creates the blank grid of an existing membership. Calling it
// again is a no-op.
func (a *AvailabilityGrid) Initialize(ctx context.Context, gamerID, code string) error {
	created, err := a.store.InitGrid(ctx, gamerID, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotMember
		}
		return fmt.Errorf("initialize grid: %w", err)
	}
	if created {
		a.logger.Warn("created missing availability grid for gamer %s in team %s", gamerID, code)
	}
	return nil
}

// SetRange marks every hour in [start, stop) on day as value, in one write.
// The range is checked before anything is written.
func (a *AvailabilityGrid) SetRange(ctx context.Context, gamerID, code string, day model.Weekday, start, stop int, value bool) error {
	if !model.ValidRange(day, start, stop) {
		return fmt.Errorf("%w: day=%d start=%d stop=%d", ErrInvalidRange, int(day), start, stop)
	}

	err := a.store.SetGridRange(ctx, gamerID, code, day, start, stop, value)
	if err != nil {
		if errors.Is(err, repository.ErrGridNotFound) {
			return a.missingGrid(ctx, gamerID, code)
		}
		if errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("%w: %w", ErrConcurrencyConflict, err)
		}
		return fmt.Errorf("set availability: %w", err)
	}
	return nil
}

// GetGrid returns the member's grid.
func (a *AvailabilityGrid) GetGrid(ctx context.Context, gamerID, code string) (model.Grid, error) {
	g, err := a.store.LoadGrid(ctx, gamerID, code)
	if err != nil {
		if errors.Is(err, repository.ErrGridNotFound) {
			return model.Grid{}, a.missingGrid(ctx, gamerID, code)
		}
		return model.Grid{}, fmt.Errorf("get availability: %w", err)
	}
	return g, nil
}

// missingGrid tells a non-member apart from a member without a grid. The
// latter should be impossible and is reported, not repaired.
func (a *AvailabilityGrid) missingGrid(ctx context.Context, gamerID, code string) error {
	member, err := a.members.IsMember(ctx, gamerID, code)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotMember
	}
	a.logger.Error("invariant violation: gamer %s is a member of team %s but has no availability grid", gamerID, code)
	return ErrGridNotFound
}
