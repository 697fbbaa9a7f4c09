package progression

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark31d/NobleStarBurstLegacy/logger"
	"github.com/mark31d/NobleStarBurstLegacy/models"
)

// State is the single in-memory source of truth for one user's
// progression. Every mutation updates memory first, notifies subscribers,
// then writes the touched category. A failed write is logged and never
// rolls the visible state back.
type State struct {
	repo *Repository
	log  *logger.Logger

	mu      sync.Mutex
	snap    Snapshot
	subs    map[int]func(Snapshot)
	nextSub int
}

func NewState(repo *Repository, log *logger.Logger) *State {
	return &State{
		repo: repo,
		log:  log.With("component", "progression.State"),
		snap: EmptySnapshot(),
		subs: make(map[int]func(Snapshot)),
	}
}

// Hydrate replaces the in-memory state with what is stored.
func (s *State) Hydrate(ctx context.Context) {
	snap := s.repo.LoadAll(ctx)
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	s.notify(snap.Clone())
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// Subscribe registers fn to receive the state after every change. The
// returned func removes the subscription.
func (s *State) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// UnlockPieces adds pieces to the unlocked set and returns the ones that
// were not already there.
func (s *State) UnlockPieces(ctx context.Context, pieces ...models.Piece) []models.Piece {
	var added []models.Piece
	snap, changed := s.mutate(func(sn *Snapshot) bool {
		for _, p := range pieces {
			if _, ok := sn.Pieces[p]; !ok {
				sn.Pieces[p] = struct{}{}
				added = append(added, p)
			}
		}
		return len(added) > 0
	})
	if changed {
		s.persist("pieces", s.repo.SavePieces(ctx, snap.Pieces))
	}
	return added
}

// MarkAnsweredCorrect records that the article's quiz was answered
// correctly. It reports false when it already was.
func (s *State) MarkAnsweredCorrect(ctx context.Context, articleID string) bool {
	snap, changed := s.mutate(func(sn *Snapshot) bool {
		if _, ok := sn.CorrectAnswers[articleID]; ok {
			return false
		}
		sn.CorrectAnswers[articleID] = struct{}{}
		return true
	})
	if changed {
		s.persist("answers", s.repo.SaveCorrectAnswers(ctx, snap.CorrectAnswers))
	}
	return changed
}

// ToggleFavorite flips the article's membership and returns the new one.
func (s *State) ToggleFavorite(ctx context.Context, articleID string) bool {
	var fav bool
	snap, _ := s.mutate(func(sn *Snapshot) bool {
		if _, ok := sn.Favorites[articleID]; ok {
			delete(sn.Favorites, articleID)
		} else {
			sn.Favorites[articleID] = struct{}{}
			fav = true
		}
		return true
	})
	s.persist("favorites", s.repo.SaveFavorites(ctx, snap.Favorites))
	return fav
}

// MarkSolved adds the artifact to the solved set. Solved is sticky; it
// reports false when the artifact was already solved.
func (s *State) MarkSolved(ctx context.Context, a models.ArtifactID) bool {
	snap, changed := s.mutate(func(sn *Snapshot) bool {
		if _, ok := sn.Solved[a]; ok {
			return false
		}
		sn.Solved[a] = struct{}{}
		return true
	})
	if changed {
		s.persist("solved", s.repo.SaveSolved(ctx, snap.Solved))
	}
	return changed
}

func (s *State) SetSettings(ctx context.Context, next models.Settings) {
	snap, _ := s.mutate(func(sn *Snapshot) bool {
		sn.Settings = next
		return true
	})
	s.persist("settings", s.repo.SaveSettings(ctx, snap.Settings))
}

// ToggleSetting flips one of "music", "sounds" or "vibration".
func (s *State) ToggleSetting(ctx context.Context, name string) (models.Settings, error) {
	next := s.Settings()
	switch name {
	case "music":
		next.Music = !next.Music
	case "sounds":
		next.Sounds = !next.Sounds
	case "vibration":
		next.Vibration = !next.Vibration
	default:
		return next, fmt.Errorf("unknown setting %q", name)
	}
	s.SetSettings(ctx, next)
	return next, nil
}

func (s *State) MarkOnboardingSeen(ctx context.Context) {
	_, changed := s.mutate(func(sn *Snapshot) bool {
		if sn.OnboardingSeen {
			return false
		}
		sn.OnboardingSeen = true
		return true
	})
	if changed {
		s.persist("onboarding", s.repo.MarkOnboardingSeen(ctx))
	}
}

func (s *State) MarkHintSeen(ctx context.Context) {
	_, changed := s.mutate(func(sn *Snapshot) bool {
		if sn.HintSeen {
			return false
		}
		sn.HintSeen = true
		return true
	})
	if changed {
		s.persist("hint", s.repo.MarkHintSeen(ctx))
	}
}

// Reset deletes every stored category and restores the defaults. Memory is
// only cleared once the store confirmed the removal.
func (s *State) Reset(ctx context.Context) error {
	if err := s.repo.ResetAll(ctx); err != nil {
		return err
	}
	s.mutate(func(sn *Snapshot) bool {
		*sn = EmptySnapshot()
		return true
	})
	s.log.Info("Progression reset")
	return nil
}

func (s *State) HasPiece(p models.Piece) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.snap.Pieces[p]
	return ok
}

func (s *State) HaveCount(a models.ArtifactID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.HaveCount(a)
}

func (s *State) IsSolved(a models.ArtifactID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.snap.Solved[a]
	return ok
}

func (s *State) IsFavorite(articleID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.snap.Favorites[articleID]
	return ok
}

func (s *State) AnsweredCorrect(articleID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.snap.CorrectAnswers[articleID]
	return ok
}

func (s *State) Settings() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Settings
}

// mutate applies fn under the lock. When fn reports a change, subscribers
// get the new state and the caller gets a copy to persist.
func (s *State) mutate(fn func(*Snapshot) bool) (Snapshot, bool) {
	s.mu.Lock()
	if !fn(&s.snap) {
		s.mu.Unlock()
		return Snapshot{}, false
	}
	snap := s.snap.Clone()
	s.mu.Unlock()
	s.notify(snap)
	return snap, true
}

func (s *State) notify(snap Snapshot) {
	s.mu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(snap.Clone())
	}
}

func (s *State) persist(category string, err error) {
	if err != nil {
		s.log.Warn("Write failed, keeping in-memory state", "category", category, "error", err)
	}
}
