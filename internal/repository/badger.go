package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/Shivanand-hulikatti/kronos/internal/logging"
	"github.com/Shivanand-hulikatti/kronos/internal/model"
	"github.com/dgraph-io/badger/v3"
	"github.com/itbasis/go-clock"
)

// Key layout:
//
//	gamer/<id>               -> model.Gamer (json)
//	gamername/<lower name>   -> gamer id
//	team/<code>              -> model.Team (json)
//	member/<code>/<gamer id> -> model.Membership (json)
//	grid/<code>/<gamer id>   -> model.Grid (21 byte bitset)
func gamerKey(id string) []byte        { return []byte("gamer/" + id) }
func gamerNameKey(name string) []byte  { return []byte("gamername/" + strings.ToLower(name)) }
func teamKey(code string) []byte       { return []byte("team/" + code) }
func memberPrefix(code string) []byte  { return []byte("member/" + code + "/") }
func memberKey(code, id string) []byte { return []byte("member/" + code + "/" + id) }
func gridKey(code, id string) []byte   { return []byte("grid/" + code + "/" + id) }

// BadgerStore implements Store on an embedded Badger database.
//
// Writes touching a team run under a per-team lock, the in-process
// counterpart of the row lock PostgresStore takes, so joins on one team are
// serialised instead of failing Badger's optimistic conflict check. Any
// conflict that still reaches commit is reported as ErrConflict.
type BadgerStore struct {
	db    *badger.DB
	clock clock.Clock
	locks *keyedMutex
}

// BadgerOptions configures OpenBadgerStore.
type BadgerOptions struct {
	Dir      string
	InMemory bool
	Logger   *logging.Logger
}

// OpenBadgerStore opens (or creates) a Badger database.
func OpenBadgerStore(opts BadgerOptions, clock clock.Clock) (*BadgerStore, error) {
	bopts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	bopts = bopts.WithLogger(badgerLogger{logger})

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db, clock: clock, locks: newKeyedMutex()}, nil
}

// Close releases the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// update runs fn in a read-write transaction, mapping commit conflicts.
func (s *BadgerStore) update(fn func(txn *badger.Txn) error) error {
	err := s.db.Update(fn)
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

func getJSON(txn *badger.Txn, key []byte, dst any) error {
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dst)
	})
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, raw)
}

func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

func getGrid(txn *badger.Txn, code, gamerID string) (model.Grid, error) {
	var g model.Grid
	item, err := txn.Get(gridKey(code, gamerID))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return g, ErrGridNotFound
		}
		return g, err
	}
	err = item.Value(func(val []byte) error {
		return g.UnmarshalBinary(val)
	})
	return g, err
}

func setGrid(txn *badger.Txn, code, gamerID string, g model.Grid) error {
	raw, err := g.MarshalBinary()
	if err != nil {
		return err
	}
	return txn.Set(gridKey(code, gamerID), raw)
}

// CreateGamer stores g and claims its lower-cased display name.
func (s *BadgerStore) CreateGamer(ctx context.Context, g *model.Gamer) error {
	unlock := s.locks.Lock(string(gamerNameKey(g.DisplayName)))
	defer unlock()

	g.CreatedAt = s.clock.Now().UTC()
	err := s.update(func(txn *badger.Txn) error {
		taken, err := exists(txn, gamerNameKey(g.DisplayName))
		if err != nil {
			return err
		}
		if taken {
			return ErrNameTaken
		}
		if err := txn.Set(gamerNameKey(g.DisplayName), []byte(g.ID)); err != nil {
			return err
		}
		return setJSON(txn, gamerKey(g.ID), g)
	})
	if err != nil && !errors.Is(err, ErrNameTaken) {
		return fmt.Errorf("insert gamer: %w", err)
	}
	return err
}

// GetGamer fetches a gamer by id.
func (s *BadgerStore) GetGamer(ctx context.Context, id string) (*model.Gamer, error) {
	var g model.Gamer
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, gamerKey(id), &g)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get gamer: %w", err)
	}
	return &g, nil
}

// TeamCodeExists reports whether a team already uses code.
func (s *BadgerStore) TeamCodeExists(ctx context.Context, code string) (bool, error) {
	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = exists(txn, teamKey(code))
		return err
	})
	if err != nil {
		return false, fmt.Errorf("check team code: %w", err)
	}
	return found, nil
}

// InsertTeam stores t unless its code is taken.
func (s *BadgerStore) InsertTeam(ctx context.Context, t *model.Team) error {
	unlock := s.locks.Lock(t.Code)
	defer unlock()

	t.CreatedAt = s.clock.Now().UTC()
	return s.update(func(txn *badger.Txn) error {
		return insertTeamTxn(txn, t)
	})
}

func insertTeamTxn(txn *badger.Txn, t *model.Team) error {
	taken, err := exists(txn, teamKey(t.Code))
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicateCode
	}
	return setJSON(txn, teamKey(t.Code), t)
}

// InsertTeamWithOwner stores the team, the owner's membership and the
// owner's blank grid in one transaction.
func (s *BadgerStore) InsertTeamWithOwner(ctx context.Context, t *model.Team, owner *model.Membership) error {
	unlock := s.locks.Lock(t.Code)
	defer unlock()

	now := s.clock.Now().UTC()
	t.CreatedAt = now
	t.MemberCount = 1
	owner.TeamCode = t.Code
	owner.Color = model.NextColor(nil)
	owner.JoinedAt = now

	return s.update(func(txn *badger.Txn) error {
		if err := requireGamer(txn, owner.GamerID); err != nil {
			return err
		}
		if err := insertTeamTxn(txn, t); err != nil {
			return err
		}
		if err := setJSON(txn, memberKey(t.Code, owner.GamerID), owner); err != nil {
			return err
		}
		return setGrid(txn, t.Code, owner.GamerID, model.Grid{})
	})
}

func requireGamer(txn *badger.Txn, id string) error {
	found, err := exists(txn, gamerKey(id))
	if err != nil {
		return err
	}
	if !found {
		return ErrGamerNotFound
	}
	return nil
}

// GetTeam fetches a team by its join code.
func (s *BadgerStore) GetTeam(ctx context.Context, code string) (*model.Team, error) {
	var t model.Team
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, teamKey(code), &t)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get team: %w", err)
	}
	return &t, nil
}

// Join takes a seat in the team under the team lock.
func (s *BadgerStore) Join(ctx context.Context, m *model.Membership) (*model.Team, bool, error) {
	unlock := s.locks.Lock(m.TeamCode)
	defer unlock()

	var team model.Team
	joined := false
	err := s.update(func(txn *badger.Txn) error {
		if err := getJSON(txn, teamKey(m.TeamCode), &team); err != nil {
			return err
		}

		members, err := listMembersTxn(txn, m.TeamCode)
		if err != nil {
			return err
		}
		colors := make([]string, 0, len(members))
		for _, existing := range members {
			if existing.GamerID == m.GamerID {
				return nil
			}
			colors = append(colors, existing.Color)
		}

		if team.IsFull() {
			return ErrTeamFull
		}
		if err := requireGamer(txn, m.GamerID); err != nil {
			return err
		}

		team.MemberCount++
		m.Color = model.NextColor(colors)
		m.JoinedAt = s.clock.Now().UTC()
		if err := setJSON(txn, teamKey(m.TeamCode), &team); err != nil {
			return err
		}
		if err := setJSON(txn, memberKey(m.TeamCode, m.GamerID), m); err != nil {
			return err
		}
		if err := setGrid(txn, m.TeamCode, m.GamerID, model.Grid{}); err != nil {
			return err
		}
		joined = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &team, joined, nil
}

// GetMembership fetches the membership of gamerID in team code.
func (s *BadgerStore) GetMembership(ctx context.Context, gamerID, code string) (*model.Membership, error) {
	var m model.Membership
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, memberKey(code, gamerID), &m)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return &m, nil
}

// ListMembers returns the members of a team, earliest join first.
func (s *BadgerStore) ListMembers(ctx context.Context, code string) ([]model.Membership, error) {
	var members []model.Membership
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		members, err = listMembersTxn(txn, code)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	return members, nil
}

func listMembersTxn(txn *badger.Txn, code string) ([]model.Membership, error) {
	prefix := memberPrefix(code)
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	var members []model.Membership
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var m model.Membership
		err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &m)
		})
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	slices.SortFunc(members, func(a, b model.Membership) int {
		if c := a.JoinedAt.Compare(b.JoinedAt); c != 0 {
			return c
		}
		return strings.Compare(a.GamerID, b.GamerID)
	})
	return members, nil
}

// InitGrid writes a blank grid for an existing membership unless one exists.
func (s *BadgerStore) InitGrid(ctx context.Context, gamerID, code string) (bool, error) {
	unlock := s.locks.Lock(code)
	defer unlock()

	created := false
	err := s.update(func(txn *badger.Txn) error {
		member, err := exists(txn, memberKey(code, gamerID))
		if err != nil {
			return err
		}
		if !member {
			return ErrNotFound
		}
		if _, err := getGrid(txn, code, gamerID); err == nil {
			return nil
		} else if !errors.Is(err, ErrGridNotFound) {
			return err
		}
		created = true
		return setGrid(txn, code, gamerID, model.Grid{})
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// LoadGrid reads one member's grid.
func (s *BadgerStore) LoadGrid(ctx context.Context, gamerID, code string) (model.Grid, error) {
	var g model.Grid
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		g, err = getGrid(txn, code, gamerID)
		return err
	})
	return g, err
}

// LoadGrids reads the grids of several members of one team in one view.
func (s *BadgerStore) LoadGrids(ctx context.Context, code string, gamerIDs []string) (map[string]model.Grid, error) {
	grids := make(map[string]model.Grid, len(gamerIDs))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range gamerIDs {
			g, err := getGrid(txn, code, id)
			if errors.Is(err, ErrGridNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			grids[id] = g
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load availability grids: %w", err)
	}
	return grids, nil
}

// SetGridRange rewrites the slots of [start, stop) on day.
func (s *BadgerStore) SetGridRange(ctx context.Context, gamerID, code string, day model.Weekday, start, stop int, v bool) error {
	unlock := s.locks.Lock(string(gridKey(code, gamerID)))
	defer unlock()

	return s.update(func(txn *badger.Txn) error {
		g, err := getGrid(txn, code, gamerID)
		if err != nil {
			return err
		}
		g.SetRange(day, start, stop, v)
		return setGrid(txn, code, gamerID, g)
	})
}

// keyedMutex hands out one mutex per key and forgets it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock blocks until key is free and returns the matching unlock func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refMutex{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// badgerLogger routes Badger's internal logging through our logger.
type badgerLogger struct {
	l *logging.Logger
}

func (b badgerLogger) Errorf(format string, v ...interface{})   { b.l.Error("badger: "+format, v...) }
func (b badgerLogger) Warningf(format string, v ...interface{}) { b.l.Warn("badger: "+format, v...) }
func (b badgerLogger) Infof(format string, v ...interface{})    { b.l.Debug("badger: "+format, v...) }
func (b badgerLogger) Debugf(format string, v ...interface{})   { b.l.Debug("badger: "+format, v...) }
