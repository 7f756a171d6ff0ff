package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/Shivanand-hulikatti/kronos/internal/model"
)

const (
	codeCharset     = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	maxCodeAttempts = 20
)

// CodeChecker reports whether a team code is already in use.
type CodeChecker interface {
	TeamCodeExists(ctx context.Context, code string) (bool, error)
}

// CodeGenerator draws random team codes and skips the ones already taken.
// The pre-check only avoids obvious collisions; the store's insert is what
// guarantees uniqueness.
type CodeGenerator struct {
	checker     CodeChecker
	length      int
	maxAttempts int
	intN        func(n int) int
}

// NewCodeGenerator returns a generator of model.CodeLength character codes.
func NewCodeGenerator(checker CodeChecker) *CodeGenerator {
	return &CodeGenerator{
		checker:     checker,
		length:      model.CodeLength,
		maxAttempts: maxCodeAttempts,
		intN:        rand.Intn,
	}
}

func (g *CodeGenerator) draw() string {
	var sb strings.Builder
	sb.Grow(g.length)
	for i := 0; i < g.length; i++ {
		sb.WriteByte(codeCharset[g.intN(len(codeCharset))])
	}
	return sb.String()
}

// Generate returns a code that was free at the time of the check, or
// ErrCodesExhausted after maxAttempts collisions.
func (g *CodeGenerator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		code := g.draw()
		taken, err := g.checker.TeamCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check team code: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w (%d)", ErrCodesExhausted, g.maxAttempts)
}
