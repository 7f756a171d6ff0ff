package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/kronos/internal/logging"
	"github.com/Shivanand-hulikatti/kronos/internal/model"
	"github.com/Shivanand-hulikatti/kronos/internal/repository"
)

// maxInsertAttempts bounds how often a team insert may lose the race for
// its code before creation gives up.
const maxInsertAttempts = 5

// TeamRegistry creates and looks up teams.
type TeamRegistry struct {
	store  repository.Store
	codes  *CodeGenerator
	logger *logging.Logger
}

// NewTeamRegistry constructs a TeamRegistry.
func NewTeamRegistry(store repository.Store, codes *CodeGenerator, logger *logging.Logger) *TeamRegistry {
	return &TeamRegistry{store: store, codes: codes, logger: logger}
}

// CreateTeam persists an empty team under a fresh code.
func (r *TeamRegistry) CreateTeam(ctx context.Context, name string) (*model.Team, error) {
	return r.create(ctx, name, r.store.InsertTeam)
}

// create draws codes until insert accepts one. insert must fail with
// repository.ErrDuplicateCode, and write nothing, when the code is taken.
func (r *TeamRegistry) create(ctx context.Context, name string, insert func(context.Context, *model.Team) error) (*model.Team, error) {
	for attempt := 1; attempt <= maxInsertAttempts; attempt++ {
		code, err := r.codes.Generate(ctx)
		if err != nil {
			if errors.Is(err, ErrCodesExhausted) {
				r.logger.Error("team code generation exhausted: %v", err)
				return nil, fmt.Errorf("%w: %w", ErrCodeGenerationFailed, err)
			}
			return nil, err
		}

		team := &model.Team{Code: code, Name: name, Capacity: model.DefaultCapacity}
		err = insert(ctx, team)
		if err == nil {
			return team, nil
		}
		if !errors.Is(err, repository.ErrDuplicateCode) {
			return nil, err
		}
		r.logger.Warn("team code %s taken at insert, regenerating (%d/%d)", code, attempt, maxInsertAttempts)
	}
	return nil, fmt.Errorf("%w: code collided on insert %d times", ErrCodeGenerationFailed, maxInsertAttempts)
}

// LookupTeam returns the team with the given code or ErrTeamNotFound.
func (r *TeamRegistry) LookupTeam(ctx context.Context, code string) (*model.Team, error) {
	team, err := r.store.GetTeam(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("lookup team: %w", err)
	}
	return team, nil
}
