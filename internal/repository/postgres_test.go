//go:build integration

package repository

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/kronos/internal/containers"
	"github.com/Shivanand-hulikatti/kronos/internal/database"
	"github.com/Shivanand-hulikatti/kronos/internal/logging"
	"github.com/Shivanand-hulikatti/kronos/internal/model"
	"github.com/google/uuid"
	"github.com/itbasis/go-clock"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A test global pool shared by every integration test.
var testPool *pgxpool.Pool

// TestMain starts a PostgreSQL container for the integration tests
func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := containers.StartPostgres(ctx)
	if err != nil {
		fmt.Printf("error starting postgres: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		// Catch all panics to make sure the container is removed
		if r := recover(); r != nil {
			_ = container.Terminate(ctx)
			fmt.Printf("panic - %v\n", r)
		}
	}()

	testPool, err = database.NewPoolFromURL(ctx, container.DSN(), logging.Discard())
	if err != nil {
		fmt.Printf("error connecting to db: %v\n", err)
		_ = container.Terminate(ctx)
		os.Exit(1)
	}

	code := m.Run()
	testPool.Close()
	if err := container.Terminate(ctx); err != nil {
		fmt.Printf("%v\n", err)
	}
	os.Exit(code)
}

func TestPostgresStore(t *testing.T) {
	runStoreSuite(t, NewPostgresStore(testPool, clock.New()))
}

func TestPostgresStore_MigrateIsIdempotent(t *testing.T) {
	require.NoError(t, database.Migrate(context.Background(), testPool))
}

func TestPostgresStore_SlotsLayout(t *testing.T) {
	ctx := context.Background()
	s := NewPostgresStore(testPool, clock.New())
	owner := newGamer(t, s)
	team := newTeam(t, s, owner)
	require.NoError(t, s.SetGridRange(ctx, owner.ID, team.Code, model.Wednesday, 7, 9, true))

	// slots is 1-based: Wednesday 07:00 is (3-1)*24 + 7 + 1
	var at7, at9 bool
	var n int
	err := testPool.QueryRow(ctx,
		`SELECT slots[56], slots[58], cardinality(slots) FROM availability WHERE team_code = $1`,
		team.Code,
	).Scan(&at7, &at9, &n)
	require.NoError(t, err)
	assert.True(t, at7)
	assert.False(t, at9)
	assert.Equal(t, model.SlotsPerWeek, n)
}

// With sequential scans disabled the planner still falls back to one when no
// index matches the predicate, so a Seq Scan here means the lookup ignores
// the primary keys.
func TestPostgresStore_GamerQueriesUseIndexes(t *testing.T) {
	ctx := context.Background()
	s := NewPostgresStore(testPool, clock.New())
	owner := newGamer(t, s)
	team := newTeam(t, s, owner)
	gamerID := uuid.MustParse(owner.ID)
	var blank model.Grid

	tests := []struct {
		name  string
		query string
		args  pgx.NamedArgs
	}{
		{"get gamer", getGamerSQL, pgx.NamedArgs{"id": gamerID}},
		{"get membership", getMembershipSQL, pgx.NamedArgs{"gamerID": gamerID, "code": team.Code}},
		{"init grid", initGridSQL, pgx.NamedArgs{"gamerID": gamerID, "code": team.Code, "slots": blank.Bools(), "updatedAt": time.Now()}},
		{"load grid", loadGridSQL, pgx.NamedArgs{"gamerID": gamerID, "code": team.Code}},
		{"load grids", loadGridsSQL, pgx.NamedArgs{"code": team.Code, "gamerIDs": []uuid.UUID{gamerID}}},
		{"set grid range", setGridRangeSQL, pgx.NamedArgs{
			"lo": 1, "hi": 2, "vals": []bool{true, true}, "updatedAt": time.Now(),
			"gamerID": gamerID, "code": team.Code,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := testPool.Begin(ctx)
			require.NoError(t, err)
			defer func() { _ = tx.Rollback(ctx) }()

			_, err = tx.Exec(ctx, "SET LOCAL enable_seqscan = off")
			require.NoError(t, err)

			rows, err := tx.Query(ctx, "EXPLAIN "+tt.query, tt.args)
			require.NoError(t, err)
			defer rows.Close()
			var lines []string
			for rows.Next() {
				var line string
				require.NoError(t, rows.Scan(&line))
				lines = append(lines, line)
			}
			require.NoError(t, rows.Err())

			plan := strings.Join(lines, "\n")
			assert.Contains(t, plan, "Index", plan)
			assert.NotContains(t, plan, "Seq Scan", plan)
		})
	}
}
