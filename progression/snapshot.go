package progression

import "github.com/mark31d/NobleStarBurstLegacy/models"

// Snapshot is the complete progression of one user.
type Snapshot struct {
	Pieces         map[models.Piece]struct{}
	Solved         map[models.ArtifactID]struct{}
	Favorites      map[string]struct{}
	CorrectAnswers map[string]struct{}
	Settings       models.Settings
	OnboardingSeen bool
	HintSeen       bool
}

// EmptySnapshot is the state of a fresh install.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Pieces:         make(map[models.Piece]struct{}),
		Solved:         make(map[models.ArtifactID]struct{}),
		Favorites:      make(map[string]struct{}),
		CorrectAnswers: make(map[string]struct{}),
		Settings:       models.DefaultSettings(),
	}
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Pieces = cloneSet(s.Pieces)
	out.Solved = cloneSet(s.Solved)
	out.Favorites = cloneSet(s.Favorites)
	out.CorrectAnswers = cloneSet(s.CorrectAnswers)
	return out
}

// HaveCount is the number of unlocked pieces of artifact a.
func (s Snapshot) HaveCount(a models.ArtifactID) int {
	n := 0
	for _, p := range models.PiecesOf(a) {
		if _, ok := s.Pieces[p]; ok {
			n++
		}
	}
	return n
}

func cloneSet[K comparable](in map[K]struct{}) map[K]struct{} {
	out := make(map[K]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}
