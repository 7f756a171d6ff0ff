package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/kronos/internal/model"
	"github.com/google/uuid"
	"github.com/itbasis/go-clock"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQL error codes the store translates.
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// Queries on the per-gamer hot paths. Each compares the uuid columns
// directly so the primary keys on gamers, memberships and availability
// serve the lookup.
const (
	getGamerSQL = `SELECT id::text, display_name, created_at FROM gamers WHERE id = @id`

	getMembershipSQL = `SELECT gamer_id::text, team_code, color, joined_at
		 FROM memberships
		 WHERE gamer_id = @gamerID AND team_code = @code`

	initGridSQL = `INSERT INTO availability (gamer_id, team_code, slots, updated_at)
		 SELECT m.gamer_id, m.team_code, @slots::boolean[], @updatedAt::timestamptz
		 FROM memberships m
		 WHERE m.gamer_id = @gamerID AND m.team_code = @code
		 ON CONFLICT (gamer_id, team_code) DO NOTHING`

	loadGridSQL = `SELECT slots FROM availability WHERE gamer_id = @gamerID AND team_code = @code`

	loadGridsSQL = `SELECT gamer_id::text, slots
		 FROM availability
		 WHERE team_code = @code AND gamer_id = ANY(@gamerIDs::uuid[])`

	setGridRangeSQL = `UPDATE availability
		 SET slots[@lo:@hi] = @vals, updated_at = @updatedAt
		 WHERE gamer_id = @gamerID AND team_code = @code`
)

// PostgresStore implements Store with pgx directly.
type PostgresStore struct {
	db    *pgxpool.Pool
	clock clock.Clock
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(db *pgxpool.Pool, clock clock.Clock) *PostgresStore {
	return &PostgresStore{db: db, clock: clock}
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgSerializationFailure, pgDeadlockDetected:
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.Message)
	case pgForeignKeyViolation:
		if pgErr.ConstraintName == "memberships_gamer_id_fkey" {
			return ErrGamerNotFound
		}
	case pgUniqueViolation:
		if pgErr.ConstraintName == "gamers_display_name_key" {
			return ErrNameTaken
		}
	}
	return err
}

// parseID converts a gamer id into the uuid column type. A string that is not
// a UUID cannot match any stored row.
func parseID(id string) (uuid.UUID, bool) {
	u, err := uuid.Parse(id)
	return u, err == nil
}

// CreateGamer inserts g. ErrNameTaken when the display name is already used,
// compared case-insensitively.
func (s *PostgresStore) CreateGamer(ctx context.Context, g *model.Gamer) error {
	g.CreatedAt = s.clock.Now().UTC()
	_, err := s.db.Exec(ctx,
		`INSERT INTO gamers (id, display_name, created_at) VALUES (@id, @name, @createdAt)`,
		pgx.NamedArgs{"id": g.ID, "name": g.DisplayName, "createdAt": g.CreatedAt},
	)
	if err != nil {
		return fmt.Errorf("insert gamer: %w", translate(err))
	}
	return nil
}

// GetGamer fetches a gamer by id.
func (s *PostgresStore) GetGamer(ctx context.Context, id string) (*model.Gamer, error) {
	uid, ok := parseID(id)
	if !ok {
		return nil, ErrNotFound
	}
	var g model.Gamer
	err := s.db.QueryRow(ctx, getGamerSQL, pgx.NamedArgs{"id": uid}).Scan(&g.ID, &g.DisplayName, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get gamer: %w", err)
	}
	return &g, nil
}

// TeamCodeExists reports whether a team already uses code.
func (s *PostgresStore) TeamCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM teams WHERE code = @code)`,
		pgx.NamedArgs{"code": code},
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check team code: %w", err)
	}
	return exists, nil
}

// InsertTeam relies on the primary key on teams.code: ON CONFLICT DO NOTHING
// turns a lost race on the same code into zero affected rows.
func (s *PostgresStore) InsertTeam(ctx context.Context, t *model.Team) error {
	t.CreatedAt = s.clock.Now().UTC()
	inserted, err := insertTeam(ctx, s.db, t)
	if err != nil {
		return err
	}
	if !inserted {
		return ErrDuplicateCode
	}
	return nil
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func insertTeam(ctx context.Context, db execer, t *model.Team) (bool, error) {
	tag, err := db.Exec(ctx,
		`INSERT INTO teams (code, name, capacity, member_count, created_at)
		 VALUES (@code, @name, @capacity, @memberCount, @createdAt)
		 ON CONFLICT (code) DO NOTHING`,
		pgx.NamedArgs{
			"code":        t.Code,
			"name":        t.Name,
			"capacity":    t.Capacity,
			"memberCount": t.MemberCount,
			"createdAt":   t.CreatedAt,
		},
	)
	if err != nil {
		return false, fmt.Errorf("insert team: %w", translate(err))
	}
	return tag.RowsAffected() == 1, nil
}

// InsertTeamWithOwner writes the team, the owner's membership and the owner's
// blank grid in one transaction.
func (s *PostgresStore) InsertTeamWithOwner(ctx context.Context, t *model.Team, owner *model.Membership) error {
	now := s.clock.Now().UTC()
	t.CreatedAt = now
	t.MemberCount = 1
	owner.TeamCode = t.Code
	owner.Color = model.NextColor(nil)
	owner.JoinedAt = now

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	inserted, err := insertTeam(ctx, tx, t)
	if err != nil {
		return err
	}
	if !inserted {
		return ErrDuplicateCode
	}
	if err := insertMember(ctx, tx, owner); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", translate(err))
	}
	return nil
}

// GetTeam fetches a team by its join code.
func (s *PostgresStore) GetTeam(ctx context.Context, code string) (*model.Team, error) {
	t, err := scanTeam(s.db.QueryRow(ctx,
		`SELECT code, name, capacity, member_count, created_at FROM teams WHERE code = @code`,
		pgx.NamedArgs{"code": code},
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get team: %w", err)
	}
	return t, nil
}

func scanTeam(row pgx.Row) (*model.Team, error) {
	var t model.Team
	if err := row.Scan(&t.Code, &t.Name, &t.Capacity, &t.MemberCount, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// Join performs a concurrency-safe join inside one transaction.
//
// A read-then-write of member_count outside a transaction lets two joins
// both see a free seat and overrun capacity. SELECT … FOR UPDATE takes an
// exclusive row lock on the team, so concurrent joins on the same team queue
// up behind each other until COMMIT or ROLLBACK, and the membership row and
// its grid become visible together with the incremented count.
func (s *PostgresStore) Join(ctx context.Context, m *model.Membership) (*model.Team, bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Step 1: lock the team row.
	team, err := scanTeam(tx.QueryRow(ctx,
		`SELECT code, name, capacity, member_count, created_at
		 FROM teams
		 WHERE code = @code
		 FOR UPDATE`,
		pgx.NamedArgs{"code": m.TeamCode},
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, ErrNotFound
		}
		return nil, false, fmt.Errorf("lock team row: %w", translate(err))
	}

	// Step 2: an existing member re-joins for free, even when the team is full.
	var colors []string
	rows, err := tx.Query(ctx,
		`SELECT gamer_id::text, color FROM memberships WHERE team_code = @code`,
		pgx.NamedArgs{"code": m.TeamCode},
	)
	if err != nil {
		return nil, false, fmt.Errorf("list member colors: %w", translate(err))
	}
	already := false
	for rows.Next() {
		var gamerID, color string
		if err := rows.Scan(&gamerID, &color); err != nil {
			rows.Close()
			return nil, false, fmt.Errorf("scan member color: %w", err)
		}
		if gamerID == m.GamerID {
			already = true
		}
		colors = append(colors, color)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("list member colors: %w", translate(err))
	}
	if already {
		return team, false, nil
	}

	// Step 3: guard capacity and take the seat.
	if team.IsFull() {
		return nil, false, ErrTeamFull
	}
	tag, err := tx.Exec(ctx,
		`UPDATE teams SET member_count = member_count + 1
		 WHERE code = @code AND member_count < capacity`,
		pgx.NamedArgs{"code": m.TeamCode},
	)
	if err != nil {
		return nil, false, fmt.Errorf("increment member_count: %w", translate(err))
	}
	if tag.RowsAffected() != 1 {
		return nil, false, ErrTeamFull
	}

	// Steps 4 and 5: membership and blank grid.
	m.Color = model.NextColor(colors)
	m.JoinedAt = s.clock.Now().UTC()
	if err := insertMember(ctx, tx, m); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("commit transaction: %w", translate(err))
	}

	team.MemberCount++
	return team, true, nil
}

// insertMember writes a membership and its all-false grid.
func insertMember(ctx context.Context, tx pgx.Tx, m *model.Membership) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO memberships (gamer_id, team_code, color, joined_at)
		 VALUES (@gamerID, @code, @color, @joinedAt)
		 ON CONFLICT (gamer_id, team_code) DO NOTHING`,
		pgx.NamedArgs{"gamerID": m.GamerID, "code": m.TeamCode, "color": m.Color, "joinedAt": m.JoinedAt},
	)
	if err != nil {
		return fmt.Errorf("insert membership: %w", translate(err))
	}

	var blank model.Grid
	_, err = tx.Exec(ctx,
		`INSERT INTO availability (gamer_id, team_code, slots, updated_at)
		 VALUES (@gamerID, @code, @slots, @updatedAt)
		 ON CONFLICT (gamer_id, team_code) DO NOTHING`,
		pgx.NamedArgs{"gamerID": m.GamerID, "code": m.TeamCode, "slots": blank.Bools(), "updatedAt": m.JoinedAt},
	)
	if err != nil {
		return fmt.Errorf("insert availability grid: %w", translate(err))
	}
	return nil
}

// GetMembership fetches the membership of gamerID in team code.
func (s *PostgresStore) GetMembership(ctx context.Context, gamerID, code string) (*model.Membership, error) {
	uid, ok := parseID(gamerID)
	if !ok {
		return nil, ErrNotFound
	}
	var m model.Membership
	err := s.db.QueryRow(ctx, getMembershipSQL, pgx.NamedArgs{"gamerID": uid, "code": code}).Scan(&m.GamerID, &m.TeamCode, &m.Color, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return &m, nil
}

// ListMembers returns the members of a team, earliest join first.
func (s *PostgresStore) ListMembers(ctx context.Context, code string) ([]model.Membership, error) {
	rows, err := s.db.Query(ctx,
		`SELECT gamer_id::text, team_code, color, joined_at
		 FROM memberships
		 WHERE team_code = @code
		 ORDER BY joined_at ASC, gamer_id ASC`,
		pgx.NamedArgs{"code": code},
	)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var members []model.Membership
	for rows.Next() {
		var m model.Membership
		if err := rows.Scan(&m.GamerID, &m.TeamCode, &m.Color, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// InitGrid inserts a blank grid for an existing membership. It leaves an
// existing grid untouched.
func (s *PostgresStore) InitGrid(ctx context.Context, gamerID, code string) (bool, error) {
	uid, ok := parseID(gamerID)
	if !ok {
		return false, ErrNotFound
	}
	var blank model.Grid
	tag, err := s.db.Exec(ctx, initGridSQL,
		pgx.NamedArgs{"gamerID": uid, "code": code, "slots": blank.Bools(), "updatedAt": s.clock.Now().UTC()},
	)
	if err != nil {
		return false, fmt.Errorf("init availability grid: %w", translate(err))
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	if _, err := s.GetMembership(ctx, gamerID, code); err != nil {
		return false, err
	}
	return false, nil
}

// LoadGrid reads one member's grid.
func (s *PostgresStore) LoadGrid(ctx context.Context, gamerID, code string) (model.Grid, error) {
	uid, ok := parseID(gamerID)
	if !ok {
		return model.Grid{}, ErrGridNotFound
	}
	var slots []bool
	err := s.db.QueryRow(ctx, loadGridSQL, pgx.NamedArgs{"gamerID": uid, "code": code}).Scan(&slots)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Grid{}, ErrGridNotFound
		}
		return model.Grid{}, fmt.Errorf("load availability grid: %w", err)
	}
	return model.GridFromBools(slots)
}

// LoadGrids reads the grids of several members of one team in one query.
func (s *PostgresStore) LoadGrids(ctx context.Context, code string, gamerIDs []string) (map[string]model.Grid, error) {
	grids := make(map[string]model.Grid, len(gamerIDs))
	ids := make([]uuid.UUID, 0, len(gamerIDs))
	for _, id := range gamerIDs {
		if uid, ok := parseID(id); ok {
			ids = append(ids, uid)
		}
	}
	if len(ids) == 0 {
		return grids, nil
	}

	rows, err := s.db.Query(ctx, loadGridsSQL, pgx.NamedArgs{"code": code, "gamerIDs": ids})
	if err != nil {
		return nil, fmt.Errorf("load availability grids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var gamerID string
		var slots []bool
		if err := rows.Scan(&gamerID, &slots); err != nil {
			return nil, fmt.Errorf("scan availability grid: %w", err)
		}
		g, err := model.GridFromBools(slots)
		if err != nil {
			return nil, err
		}
		grids[gamerID] = g
	}
	return grids, rows.Err()
}

// SetGridRange assigns the array slice covering [start, stop) in a single
// UPDATE. Postgres arrays are 1-based, hence the +1.
func (s *PostgresStore) SetGridRange(ctx context.Context, gamerID, code string, day model.Weekday, start, stop int, v bool) error {
	uid, ok := parseID(gamerID)
	if !ok {
		return ErrGridNotFound
	}
	lo := model.Slot{Day: day, Hour: start}.Index() + 1
	hi := model.Slot{Day: day, Hour: stop - 1}.Index() + 1
	vals := make([]bool, hi-lo+1)
	for i := range vals {
		vals[i] = v
	}

	tag, err := s.db.Exec(ctx, setGridRangeSQL,
		pgx.NamedArgs{
			"lo":        lo,
			"hi":        hi,
			"vals":      vals,
			"updatedAt": s.clock.Now().UTC(),
			"gamerID":   uid,
			"code":      code,
		},
	)
	if err != nil {
		return fmt.Errorf("update availability grid: %w", translate(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrGridNotFound
	}
	return nil
}
