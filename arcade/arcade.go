// Package arcade implements the star-catching mini game: timed rounds that
// earn stars, a cooldown between rounds and trivia facts bought with stars.
package arcade

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mark31d/NobleStarBurstLegacy/clock"
	"github.com/mark31d/NobleStarBurstLegacy/database"
	"github.com/mark31d/NobleStarBurstLegacy/logger"
	"github.com/mark31d/NobleStarBurstLegacy/models"
)

// Storage keys, all integers stored as decimal strings.
const (
	KeyStars         = "bsp:stars"
	KeyLastPlayed    = "bsp:stars:lastTs"
	KeyFactsUnlocked = "bsp:egyptFacts:unlockedCount"
)

const (
	RoundDuration = 20 * time.Second
	PlayCooldown  = 10 * time.Minute
)

var (
	ErrCoolingDown       = errors.New("the next round is not available yet")
	ErrRoundActive       = errors.New("a round is already running")
	ErrAllFactsUnlocked  = errors.New("all facts are unlocked")
	ErrInsufficientStars = errors.New("not enough stars")
)

// Keys lists every key owned by the arcade.
func Keys() []string {
	return []string{KeyStars, KeyLastPlayed, KeyFactsUnlocked}
}

// Status is what the arcade screen shows.
type Status struct {
	Stars         int
	FactsUnlocked int
	TotalFacts    int
	// NextCost is the price of the next fact, 0 once all are unlocked.
	NextCost     int
	CooldownLeft time.Duration
	RoundActive  bool
}

// Result is the outcome of a finished round.
type Result struct {
	RoundID uuid.UUID
	Reward  int
	Stars   int
}

// Arcade is the mini game of one user.
type Arcade struct {
	store database.Store
	facts []models.Fact
	clock clock.Clock
	log   *logger.Logger

	mu    sync.Mutex
	round *Round

	// balanceMu serializes read-modify-write sequences on the stored
	// balance. Taken before mu, never while holding it.
	balanceMu sync.Mutex
}

func New(store database.Store, facts []models.Fact, clk clock.Clock, log *logger.Logger) *Arcade {
	return &Arcade{
		store: store,
		facts: facts,
		clock: clk,
		log:   log.With("component", "arcade"),
	}
}

// Status reads the balance, the fact count and the play cooldown.
func (a *Arcade) Status(ctx context.Context) Status {
	st := Status{
		Stars:         a.readInt(ctx, KeyStars),
		FactsUnlocked: a.readInt(ctx, KeyFactsUnlocked),
		TotalFacts:    len(a.facts),
		CooldownLeft:  a.cooldownLeft(ctx),
	}
	if st.FactsUnlocked > len(a.facts) {
		st.FactsUnlocked = len(a.facts)
	}
	if st.FactsUnlocked < len(a.facts) {
		st.NextCost = a.facts[st.FactsUnlocked].Cost
	}
	a.mu.Lock()
	st.RoundActive = a.round != nil
	a.mu.Unlock()
	return st
}

// StartRound begins a round. onEnd, if set, receives the result once the
// round duration has elapsed and the reward is stored.
func (a *Arcade) StartRound(ctx context.Context, onEnd func(Result)) (*Round, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.round != nil {
		return nil, ErrRoundActive
	}
	if a.cooldownLeft(ctx) > 0 {
		return nil, ErrCoolingDown
	}
	r := &Round{
		ID:      uuid.New(),
		arcade:  a,
		onEnd:   onEnd,
		endsAt:  a.clock.Now().Add(RoundDuration),
		running: true,
	}
	r.timer = a.clock.AfterFunc(RoundDuration, r.finish)
	a.round = r
	a.log.Debug("Round started", "round", r.ID)
	return r, nil
}

// Round returns the running round, if any.
func (a *Arcade) Round() *Round {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.round
}

// UnlockNextFact spends stars on the next fact in order.
func (a *Arcade) UnlockNextFact(ctx context.Context) (models.Fact, error) {
	a.balanceMu.Lock()
	defer a.balanceMu.Unlock()
	count := a.readInt(ctx, KeyFactsUnlocked)
	if count >= len(a.facts) {
		return models.Fact{}, ErrAllFactsUnlocked
	}
	fact := a.facts[count]
	stars := a.readInt(ctx, KeyStars)
	if stars < fact.Cost {
		return models.Fact{}, fmt.Errorf("%w: need %d, have %d", ErrInsufficientStars, fact.Cost, stars)
	}
	err := a.store.MultiSet(ctx, map[string]string{
		KeyStars:         strconv.Itoa(stars - fact.Cost),
		KeyFactsUnlocked: strconv.Itoa(count + 1),
	})
	if err != nil {
		return models.Fact{}, fmt.Errorf("store fact unlock: %w", err)
	}
	return fact, nil
}

// UnlockedFacts returns the facts bought so far, in order.
func (a *Arcade) UnlockedFacts(ctx context.Context) []models.Fact {
	n := a.readInt(ctx, KeyFactsUnlocked)
	if n > len(a.facts) {
		n = len(a.facts)
	}
	return a.facts[:n]
}

// Reset abandons a running round and removes every arcade key.
func (a *Arcade) Reset(ctx context.Context) error {
	a.Close()
	a.balanceMu.Lock()
	defer a.balanceMu.Unlock()
	if err := a.store.Remove(ctx, Keys()...); err != nil {
		return fmt.Errorf("reset arcade: %w", err)
	}
	return nil
}

// Close abandons a running round without crediting it.
func (a *Arcade) Close() {
	a.mu.Lock()
	r := a.round
	a.round = nil
	a.mu.Unlock()
	if r != nil {
		r.abandon()
	}
}

func (a *Arcade) cooldownLeft(ctx context.Context) time.Duration {
	last := a.readInt(ctx, KeyLastPlayed)
	if last == 0 {
		return 0
	}
	left := PlayCooldown - a.clock.Now().Sub(time.UnixMilli(int64(last)))
	if left < 0 {
		return 0
	}
	return left
}

func (a *Arcade) readInt(ctx context.Context, key string) int {
	raw, err := a.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			a.log.Warn("Read failed, using 0", "key", key, "error", err)
		}
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// credit stores the reward of r. It reports false when r was abandoned
// before its reward could be stored.
func (a *Arcade) credit(r *Round, score int) (Result, bool) {
	a.balanceMu.Lock()
	defer a.balanceMu.Unlock()

	a.mu.Lock()
	current := a.round == r
	if current {
		a.round = nil
	}
	a.mu.Unlock()
	if !current {
		return Result{}, false
	}

	ctx := context.Background()
	reward := score
	if reward < 0 {
		reward = 0
	}
	stars := a.readInt(ctx, KeyStars) + reward
	err := a.store.MultiSet(ctx, map[string]string{
		KeyStars:      strconv.Itoa(stars),
		KeyLastPlayed: strconv.FormatInt(a.clock.Now().UnixMilli(), 10),
	})
	if err != nil {
		a.log.Warn("Could not store round reward", "round", r.ID, "error", err)
	}

	a.log.Info("Round finished", "round", r.ID, "reward", reward, "stars", stars)
	return Result{RoundID: r.ID, Reward: reward, Stars: stars}, true
}

// Round is one timed catching session.
type Round struct {
	ID uuid.UUID

	arcade *Arcade
	onEnd  func(Result)
	endsAt time.Time
	timer  clock.Timer

	mu      sync.Mutex
	score   int
	running bool
}

// Catch counts one caught star. It reports false once the round is over.
func (r *Round) Catch() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return false
	}
	r.score++
	return true
}

func (r *Round) Score() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.score
}

// Remaining is the time left in the round.
func (r *Round) Remaining() time.Duration {
	left := r.endsAt.Sub(r.arcade.clock.Now())
	if left < 0 {
		return 0
	}
	return left
}

func (r *Round) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Round) finish() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	score := r.score
	r.mu.Unlock()

	res, ok := r.arcade.credit(r, score)
	if ok && r.onEnd != nil {
		r.onEnd(res)
	}
}

func (r *Round) abandon() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
	r.timer.Stop()
}
