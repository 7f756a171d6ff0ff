package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/kronos/internal/logging"
	"github.com/Shivanand-hulikatti/kronos/internal/model"
	"github.com/Shivanand-hulikatti/kronos/internal/repository"
	"github.com/itbasis/go-clock"
	"github.com/stretchr/testify/require"
)

// newTestScheduler returns a Scheduler over a fresh in-memory Badger store.
func newTestScheduler(t *testing.T) (*Scheduler, *clock.Mock) {
	t.Helper()

	clk := clock.NewMock()
	clk.Add(24 * time.Hour)

	store, err := repository.OpenBadgerStore(repository.BadgerOptions{InMemory: true}, clk)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return NewScheduler(store, logging.Discard()), clk
}

var gamerSeq atomic.Int64

// registerGamers creates n gamers and returns their ids in creation order.
func registerGamers(t *testing.T, s *Scheduler, n int) []string {
	t.Helper()

	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		g, err := s.RegisterGamer(context.Background(), model.RegisterGamerRequest{
			DisplayName: fmt.Sprintf("gamer-%d", gamerSeq.Add(1)),
		})
		require.NoError(t, err)
		ids = append(ids, g.ID)
	}
	return ids
}

// isCodeChar reports whether r may appear in a team code.
func isCodeChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
