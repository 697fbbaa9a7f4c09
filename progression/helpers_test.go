package progression

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mark31d/NobleStarBurstLegacy/clock"
	"github.com/mark31d/NobleStarBurstLegacy/content"
	"github.com/mark31d/NobleStarBurstLegacy/database"
	"github.com/mark31d/NobleStarBurstLegacy/logger"
	"github.com/mark31d/NobleStarBurstLegacy/models"
)

var errWriteFailed = errors.New("disk full")

// failingStore reads from an in-memory store but refuses every write.
type failingStore struct {
	*database.Memory
}

func (failingStore) Set(context.Context, string, string) error {
	return errWriteFailed
}

func (failingStore) MultiSet(context.Context, map[string]string) error {
	return errWriteFailed
}

func (failingStore) Remove(context.Context, ...string) error {
	return errWriteFailed
}

// seqRand returns its values in order, wrapping around.
type seqRand struct {
	vals []int
	i    int
}

func (r *seqRand) IntN(n int) int {
	v := r.vals[r.i%len(r.vals)] % n
	r.i++
	return v
}

func newState(t *testing.T, store database.Store) *State {
	t.Helper()
	s := NewState(NewRepository(store, logger.Nop()), logger.Nop())
	s.Hydrate(context.Background())
	return s
}

func loadCatalog(t *testing.T) *content.Catalog {
	t.Helper()
	c, err := content.Load()
	if err != nil {
		t.Fatalf("content.Load: %v", err)
	}
	return c
}

func article(t *testing.T, id string) models.Article {
	t.Helper()
	a, ok := loadCatalog(t).Article(id)
	if !ok {
		t.Fatalf("article %s missing", id)
	}
	return a
}

func newFakeClock() *clock.Fake {
	return clock.NewFake(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
}
