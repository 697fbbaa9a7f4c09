package progression

import (
	"context"
	"sync"
	"time"

	"github.com/mark31d/NobleStarBurstLegacy/clock"
	"github.com/mark31d/NobleStarBurstLegacy/models"
)

// CooldownDuration is how long a wrong answer locks the quiz.
const CooldownDuration = 60 * time.Second

// NoSelection marks a quiz with no option chosen.
const NoSelection = -1

// Outcome describes what a submission did. A rejected submission
// (Accepted false) changes nothing and reports the current quiz state.
type Outcome struct {
	Accepted      bool
	Correct       bool
	Selected      int
	Unlocked      []models.Piece
	CooldownUntil time.Time
}

// Quiz is the quiz of one open article. Close it when the article view
// goes away so its pending wake-up is cancelled.
type Quiz struct {
	state    *State
	article  models.Article
	clock    clock.Clock
	onExpire func()

	mu       sync.Mutex
	selected int
	deadline time.Time
	timer    clock.Timer
	closed   bool
}

// OpenQuiz opens the article's quiz. An article answered correctly in an
// earlier session opens with the correct option selected and accepts no
// further answers. onExpire, if set, runs when a cooldown ends.
func OpenQuiz(state *State, article models.Article, clk clock.Clock, onExpire func()) *Quiz {
	q := &Quiz{
		state:    state,
		article:  article,
		clock:    clk,
		onExpire: onExpire,
		selected: NoSelection,
	}
	if state.AnsweredCorrect(article.ID) {
		q.selected = article.Correct
	}
	return q
}

func (q *Quiz) Article() models.Article { return q.article }

// Resume carries over a cooldown that a wrong answer started in another
// view of the same article. It does nothing once the deadline has passed
// or when the quiz already has a selection.
func (q *Quiz) Resume(selected int, until time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.clock.Now()
	if q.closed || q.selected != NoSelection || !now.Before(until) ||
		selected < 0 || selected >= len(q.article.Options) || selected == q.article.Correct {
		return
	}
	q.selected = selected
	q.deadline = until
	q.timer = q.clock.AfterFunc(until.Sub(now), q.expire)
}

// Submit answers the quiz with the option at index.
func (q *Quiz) Submit(ctx context.Context, index int) Outcome {
	q.mu.Lock()
	now := q.clock.Now()
	if q.closed || q.cooldownActiveLocked(now) || q.selected != NoSelection ||
		index < 0 || index >= len(q.article.Options) {
		out := q.outcomeLocked()
		q.mu.Unlock()
		return out
	}
	q.selected = index
	if index != q.article.Correct {
		q.deadline = now.Add(CooldownDuration)
		q.timer = q.clock.AfterFunc(CooldownDuration, q.expire)
		out := q.outcomeLocked()
		out.Accepted = true
		q.mu.Unlock()
		return out
	}
	out := q.outcomeLocked()
	q.mu.Unlock()

	out.Accepted = true
	q.state.MarkAnsweredCorrect(ctx, q.article.ID)
	if pieces, ok := PiecesFor(q.article.ID); ok {
		q.state.UnlockPieces(ctx, pieces[:]...)
		out.Unlocked = pieces[:]
	}
	return out
}

// Selected returns the selected option or NoSelection.
func (q *Quiz) Selected() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.selected
}

// CooldownActive reports whether a wrong answer is still locking the quiz.
func (q *Quiz) CooldownActive() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cooldownActiveLocked(q.clock.Now())
}

// Remaining returns the whole seconds left on the cooldown, rounded up.
func (q *Quiz) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.remainingLocked(q.clock.Now())
}

// Tick reconciles the cooldown against the clock and returns the seconds
// left. It ends a cooldown whose deadline has passed even if the wake-up
// has not run yet.
func (q *Quiz) Tick() int {
	q.mu.Lock()
	left := q.remainingLocked(q.clock.Now())
	due := left == 0 && !q.deadline.IsZero()
	q.mu.Unlock()
	if due {
		q.expire()
	}
	return left
}

// Close cancels the pending wake-up. Further submissions are rejected.
func (q *Quiz) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
}

func (q *Quiz) expire() {
	q.mu.Lock()
	if q.closed || q.deadline.IsZero() {
		q.mu.Unlock()
		return
	}
	q.deadline = time.Time{}
	q.selected = NoSelection
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	onExpire := q.onExpire
	q.mu.Unlock()
	if onExpire != nil {
		onExpire()
	}
}

func (q *Quiz) cooldownActiveLocked(now time.Time) bool {
	return !q.deadline.IsZero() && now.Before(q.deadline)
}

func (q *Quiz) remainingLocked(now time.Time) int {
	if q.deadline.IsZero() || !now.Before(q.deadline) {
		return 0
	}
	left := q.deadline.Sub(now)
	return int((left + time.Second - 1) / time.Second)
}

func (q *Quiz) outcomeLocked() Outcome {
	return Outcome{
		Correct:       q.selected != NoSelection && q.selected == q.article.Correct,
		Selected:      q.selected,
		CooldownUntil: q.deadline,
	}
}
