package service

import (
	"errors"
	"fmt"
)

// Domain errors surfaced to callers. Match them with errors.Is.
var (
	ErrValidation = errors.New("validation error")

	ErrCodesExhausted       = errors.New("no unique team code after max attempts")
	ErrCodeGenerationFailed = errors.New("team code generation failed")

	ErrTeamNotFound = errors.New("team not found")
	ErrTeamFull     = errors.New("team is at maximum capacity")

	ErrGamerNotFound = errors.New("gamer not found")
	ErrNameTaken     = errors.New("display name already taken")

	ErrInvalidRange = errors.New("invalid availability range")

	// ErrGridNotFound means a member has no availability grid. Joins create
	// the grid atomically, so this is an internal invariant violation.
	ErrGridNotFound = errors.New("availability grid not found")

	// ErrNotMember is the grid lookup failure for a gamer outside the team.
	// It matches ErrGridNotFound, since no grid exists for that pair.
	ErrNotMember = fmt.Errorf("%w: gamer is not a member of this team", ErrGridNotFound)

	// ErrConcurrencyConflict is returned once the bounded retry on a
	// conflicting transaction is used up.
	ErrConcurrencyConflict = errors.New("concurrency conflict, retries exhausted")
)
