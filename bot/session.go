package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mark31d/NobleStarBurstLegacy/arcade"
	"github.com/mark31d/NobleStarBurstLegacy/database"
	"github.com/mark31d/NobleStarBurstLegacy/progression"
)

// session is everything the bot keeps for one chat: its progression, its
// arcade and the views that are currently open. A chat has at most one
// open quiz and one open puzzle; opening another closes the previous one.
type session struct {
	chatID      int64
	state       *progression.State
	arcade      *arcade.Arcade
	unsubscribe func()

	mu          sync.Mutex
	quiz        *progression.Quiz
	quizMsgID   int
	puzzle      *progression.Puzzle
	puzzleMsgID int
	roundMsgID  int
	solvedCount int
	// cooldowns outlive the quiz views so an older copy of a question
	// cannot be answered while a wrong answer is still locking it
	cooldowns map[string]cooldown
}

type cooldown struct {
	selected int
	until    time.Time
}

// session returns the chat's session, hydrating it on first use.
func (b *Bot) session(ctx context.Context, chatID int64) *session {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.sessions[chatID]; ok {
		return s
	}

	store := database.Namespace(b.store, fmt.Sprintf("chat:%d:", chatID))
	log := b.log.With("chat", chatID)
	state := progression.NewState(progression.NewRepository(store, log), log)
	state.Hydrate(ctx)

	s := &session{
		chatID:      chatID,
		state:       state,
		arcade:      arcade.New(store, b.catalog.Facts, b.clock, log),
		solvedCount: len(state.Snapshot().Solved),
		cooldowns:   make(map[string]cooldown),
	}
	s.unsubscribe = state.Subscribe(func(snap progression.Snapshot) {
		s.mu.Lock()
		prev := s.solvedCount
		s.solvedCount = len(snap.Solved)
		s.mu.Unlock()
		if len(snap.Solved) > prev {
			log.Info("Artifact solved", "solved", len(snap.Solved), "of", len(progression.Artifacts))
		}
	})
	b.sessions[chatID] = s
	log.Debug("Session hydrated", "pieces", len(state.Snapshot().Pieces))
	return s
}

// openQuiz replaces the open quiz, cancelling the old one's cooldown timer.
func (s *session) openQuiz(q *progression.Quiz, msgID int) {
	s.mu.Lock()
	old := s.quiz
	s.quiz, s.quizMsgID = q, msgID
	s.mu.Unlock()
	if old != nil {
		old.Close()
	}
}

func (s *session) currentQuiz(articleID string) (*progression.Quiz, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quiz == nil || s.quiz.Article().ID != articleID {
		return nil, 0
	}
	return s.quiz, s.quizMsgID
}

func (s *session) openPuzzle(p *progression.Puzzle, msgID int) {
	s.mu.Lock()
	s.puzzle, s.puzzleMsgID = p, msgID
	s.mu.Unlock()
}

func (s *session) currentPuzzle(id string) (*progression.Puzzle, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.puzzle == nil || string(s.puzzle.Artifact()) != id {
		return nil, 0
	}
	return s.puzzle, s.puzzleMsgID
}

func (s *session) openedPuzzle() (*progression.Puzzle, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puzzle, s.puzzleMsgID
}

func (s *session) startCooldown(articleID string, selected int, until time.Time) {
	s.mu.Lock()
	s.cooldowns[articleID] = cooldown{selected: selected, until: until}
	s.mu.Unlock()
}

func (s *session) cooldown(articleID string) (cooldown, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cooldowns[articleID]
	return c, ok
}

// closeViews tears down every open view.
func (s *session) closeViews() {
	s.mu.Lock()
	q := s.quiz
	s.quiz, s.puzzle = nil, nil
	clear(s.cooldowns)
	s.mu.Unlock()
	if q != nil {
		q.Close()
	}
	s.arcade.Close()
}

// resetAll deletes every stored key of the chat, progression and arcade.
func (s *session) resetAll(ctx context.Context) error {
	s.closeViews()
	if err := s.state.Reset(ctx); err != nil {
		return err
	}
	return s.arcade.Reset(ctx)
}

func (s *session) close() {
	s.closeViews()
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}
