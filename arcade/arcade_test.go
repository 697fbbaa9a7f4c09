package arcade

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/mark31d/NobleStarBurstLegacy/clock"
	"github.com/mark31d/NobleStarBurstLegacy/database"
	"github.com/mark31d/NobleStarBurstLegacy/logger"
	"github.com/mark31d/NobleStarBurstLegacy/models"
)

var testFacts = []models.Fact{
	{Text: "The Nile flows north.", Cost: 3},
	{Text: "Cats were revered.", Cost: 5},
}

func newArcade(t *testing.T) (*Arcade, *database.Memory, *clock.Fake) {
	t.Helper()
	mem := database.NewMemory()
	clk := clock.NewFake(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	return New(mem, testFacts, clk, logger.Nop()), mem, clk
}

func TestRound_CreditsCatchesAndStartsCooldown(t *testing.T) {
	ctx := context.Background()
	a, mem, clk := newArcade(t)

	var got *Result
	r, err := a.StartRound(ctx, func(res Result) { got = &res })
	if err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	if _, err := a.StartRound(ctx, nil); !errors.Is(err, ErrRoundActive) {
		t.Fatalf("expected ErrRoundActive, got %v", err)
	}
	for i := 0; i < 7; i++ {
		r.Catch()
	}
	clk.Advance(19 * time.Second)
	if got != nil || !r.Running() {
		t.Fatalf("round ended early")
	}
	if r.Remaining() != time.Second {
		t.Fatalf("remaining = %v", r.Remaining())
	}

	clk.Advance(time.Second)
	if got == nil {
		t.Fatalf("round did not end")
	}
	if got.Reward != 7 || got.Stars != 7 || got.RoundID != r.ID {
		t.Fatalf("unexpected result %+v", got)
	}
	if r.Catch() {
		t.Fatalf("catch accepted after the round ended")
	}
	raw, _ := mem.Get(ctx, KeyLastPlayed)
	if raw != strconv.FormatInt(clk.Now().UnixMilli(), 10) {
		t.Fatalf("last played = %s", raw)
	}

	st := a.Status(ctx)
	if st.Stars != 7 || st.RoundActive || st.CooldownLeft != PlayCooldown {
		t.Fatalf("status = %+v", st)
	}
	if _, err := a.StartRound(ctx, nil); !errors.Is(err, ErrCoolingDown) {
		t.Fatalf("expected ErrCoolingDown, got %v", err)
	}

	clk.Advance(PlayCooldown)
	if a.Status(ctx).CooldownLeft != 0 {
		t.Fatalf("cooldown still running")
	}
	if _, err := a.StartRound(ctx, nil); err != nil {
		t.Fatalf("StartRound after cooldown: %v", err)
	}
}

func TestRound_AccumulatesBalance(t *testing.T) {
	ctx := context.Background()
	a, mem, clk := newArcade(t)
	mem.Set(ctx, KeyStars, "10")

	r, _ := a.StartRound(ctx, nil)
	r.Catch()
	r.Catch()
	clk.Advance(RoundDuration)

	if st := a.Status(ctx); st.Stars != 12 {
		t.Fatalf("stars = %d", st.Stars)
	}
}

func TestClose_AbandonsRoundWithoutCredit(t *testing.T) {
	ctx := context.Background()
	a, mem, clk := newArcade(t)

	r, _ := a.StartRound(ctx, nil)
	r.Catch()
	a.Close()
	clk.Advance(time.Minute)

	if _, err := mem.Get(ctx, KeyStars); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("abandoned round was credited")
	}
	if a.Round() != nil {
		t.Fatalf("round still registered")
	}
	if clk.Pending() != 0 {
		t.Fatalf("round timer not cancelled")
	}
}

func TestUnlockNextFact(t *testing.T) {
	ctx := context.Background()
	a, mem, _ := newArcade(t)
	mem.Set(ctx, KeyStars, "9")

	f, err := a.UnlockNextFact(ctx)
	if err != nil || f != testFacts[0] {
		t.Fatalf("first unlock = %+v, %v", f, err)
	}
	st := a.Status(ctx)
	if st.Stars != 6 || st.FactsUnlocked != 1 || st.NextCost != 5 {
		t.Fatalf("status = %+v", st)
	}

	if _, err := a.UnlockNextFact(ctx); err != nil {
		t.Fatalf("second unlock: %v", err)
	}
	if _, err := a.UnlockNextFact(ctx); !errors.Is(err, ErrAllFactsUnlocked) {
		t.Fatalf("expected ErrAllFactsUnlocked, got %v", err)
	}
	if got := a.UnlockedFacts(ctx); len(got) != 2 {
		t.Fatalf("unlocked facts = %v", got)
	}
	if st := a.Status(ctx); st.Stars != 1 || st.NextCost != 0 {
		t.Fatalf("status = %+v", st)
	}
}

func TestUnlockNextFact_InsufficientStars(t *testing.T) {
	ctx := context.Background()
	a, mem, _ := newArcade(t)
	mem.Set(ctx, KeyStars, "2")

	if _, err := a.UnlockNextFact(ctx); !errors.Is(err, ErrInsufficientStars) {
		t.Fatalf("expected ErrInsufficientStars, got %v", err)
	}
	if st := a.Status(ctx); st.Stars != 2 || st.FactsUnlocked != 0 {
		t.Fatalf("failed unlock changed state: %+v", st)
	}
}

func TestStatus_MalformedNumbersReadAsZero(t *testing.T) {
	ctx := context.Background()
	a, mem, _ := newArcade(t)
	mem.Set(ctx, KeyStars, "lots")
	mem.Set(ctx, KeyFactsUnlocked, "-4")
	mem.Set(ctx, KeyLastPlayed, "yesterday")

	st := a.Status(ctx)
	if st.Stars != 0 || st.FactsUnlocked != 0 || st.CooldownLeft != 0 {
		t.Fatalf("status = %+v", st)
	}
	if st.NextCost != 3 || st.TotalFacts != 2 {
		t.Fatalf("status = %+v", st)
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	a, mem, _ := newArcade(t)
	mem.Set(ctx, KeyStars, "40")
	mem.Set(ctx, KeyFactsUnlocked, "1")
	mem.Set(ctx, KeyLastPlayed, "1")
	a.StartRound(ctx, nil)

	if err := a.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if mem.Len() != 0 {
		t.Fatalf("keys left after reset: %d", mem.Len())
	}
	if a.Round() != nil {
		t.Fatalf("round survived reset")
	}
}

// hookStore calls onGet before every read.
type hookStore struct {
	*database.Memory

	mu    sync.Mutex
	onGet func(key string)
}

func (h *hookStore) Get(ctx context.Context, key string) (string, error) {
	h.mu.Lock()
	f := h.onGet
	h.mu.Unlock()
	if f != nil {
		f(key)
	}
	return h.Memory.Get(ctx, key)
}

func (h *hookStore) hook(f func(key string)) {
	h.mu.Lock()
	h.onGet = f
	h.mu.Unlock()
}

// during runs f on its own goroutine the first time key is read and gives
// it a moment to finish. The returned channel closes once f returned.
func during(h *hookStore, key string, f func()) <-chan struct{} {
	done := make(chan struct{})
	var once sync.Once
	h.hook(func(k string) {
		if k != key {
			return
		}
		once.Do(func() {
			go func() {
				f()
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(100 * time.Millisecond):
			}
		})
	})
	return done
}

func TestRoundEndDuringFactUnlockKeepsBothUpdates(t *testing.T) {
	ctx := context.Background()
	store := &hookStore{Memory: database.NewMemory()}
	clk := clock.NewFake(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	a := New(store, testFacts, clk, logger.Nop())
	store.Set(ctx, KeyStars, "10")

	r, err := a.StartRound(ctx, nil)
	if err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	for range 5 {
		r.Catch()
	}

	ended := during(store, KeyStars, func() { clk.Advance(RoundDuration) })
	if _, err := a.UnlockNextFact(ctx); err != nil {
		t.Fatalf("UnlockNextFact: %v", err)
	}
	<-ended
	store.hook(nil)

	st := a.Status(ctx)
	if st.Stars != 12 || st.FactsUnlocked != 1 {
		t.Fatalf("stars = %d, facts = %d; want 10 + 5 - 3 = 12 and 1", st.Stars, st.FactsUnlocked)
	}
}

func TestResetDuringRoundEndLeavesNoKeys(t *testing.T) {
	ctx := context.Background()
	store := &hookStore{Memory: database.NewMemory()}
	clk := clock.NewFake(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	a := New(store, testFacts, clk, logger.Nop())

	r, _ := a.StartRound(ctx, nil)
	r.Catch()

	var resetErr error
	reset := during(store, KeyStars, func() { resetErr = a.Reset(ctx) })
	clk.Advance(RoundDuration)
	<-reset
	store.hook(nil)

	if resetErr != nil {
		t.Fatalf("Reset: %v", resetErr)
	}
	if store.Len() != 0 {
		t.Fatalf("%d keys written back after reset", store.Len())
	}
}
