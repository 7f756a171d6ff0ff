// Package repository persists gamers, teams, memberships and availability
// grids. Two implementations share the Store contract: PostgresStore (pgx,
// no ORM) and BadgerStore (embedded key-value store).
package repository

import (
	"context"
	"errors"

	"github.com/Shivanand-hulikatti/kronos/internal/model"
)

var (
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateCode is returned when a team code is already taken.
	ErrDuplicateCode = errors.New("team code already exists")

	// ErrTeamFull is returned when a team has no remaining capacity.
	ErrTeamFull = errors.New("team is at maximum capacity")

	// ErrGridNotFound is returned when a membership has no availability grid.
	ErrGridNotFound = errors.New("availability grid not found")

	// ErrGamerNotFound is returned when a membership references an unknown gamer.
	ErrGamerNotFound = errors.New("gamer not found")

	// ErrNameTaken is returned when a display name is already registered.
	ErrNameTaken = errors.New("display name already taken")

	// ErrConflict is returned when a transaction lost a race with another
	// transaction and was aborted. The operation may be retried.
	ErrConflict = errors.New("concurrent update conflict")
)

// Store is the persistence contract of the scheduling core.
type Store interface {
	// CreateGamer inserts g, assigning CreatedAt. ErrNameTaken on a duplicate name.
	CreateGamer(ctx context.Context, g *model.Gamer) error
	// GetGamer returns a gamer by id or ErrNotFound.
	GetGamer(ctx context.Context, id string) (*model.Gamer, error)

	// TeamCodeExists reports whether code is already used. Best effort only.
	TeamCodeExists(ctx context.Context, code string) (bool, error)
	// InsertTeam atomically inserts t if its code is free, else ErrDuplicateCode.
	InsertTeam(ctx context.Context, t *model.Team) error
	// InsertTeamWithOwner inserts t with a member count of one together with
	// the owner's membership and blank grid, in one transaction.
	InsertTeamWithOwner(ctx context.Context, t *model.Team, owner *model.Membership) error
	// GetTeam returns a team by code or ErrNotFound.
	GetTeam(ctx context.Context, code string) (*model.Team, error)

	// Join adds m to its team. If the membership already exists the current
	// team is returned with joined=false and nothing changes. Otherwise the
	// capacity check, count increment, membership insert and grid creation
	// happen atomically; ErrTeamFull when no seat is left.
	Join(ctx context.Context, m *model.Membership) (team *model.Team, joined bool, err error)
	// GetMembership returns one membership or ErrNotFound.
	GetMembership(ctx context.Context, gamerID, code string) (*model.Membership, error)
	// ListMembers returns a team's memberships in join order.
	ListMembers(ctx context.Context, code string) ([]model.Membership, error)

	// InitGrid creates a blank grid for an existing membership. It returns
	// false when the grid already exists and ErrNotFound without a membership.
	InitGrid(ctx context.Context, gamerID, code string) (bool, error)
	// LoadGrid returns one grid or ErrGridNotFound.
	LoadGrid(ctx context.Context, gamerID, code string) (model.Grid, error)
	// LoadGrids returns the grids of the given gamers in one read. Gamers
	// without a grid are absent from the map.
	LoadGrids(ctx context.Context, code string, gamerIDs []string) (map[string]model.Grid, error)
	// SetGridRange writes v to [start, stop) on day as one atomic write.
	SetGridRange(ctx context.Context, gamerID, code string, day model.Weekday, start, stop int, v bool) error
}
