package progression

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/mark31d/NobleStarBurstLegacy/models"
)

var (
	// ErrUnknownArtifact is returned for an artifact id outside Artifacts.
	ErrUnknownArtifact = errors.New("unknown artifact")
	// ErrPiecesMissing is returned when the artifact is not fully collected.
	ErrPiecesMissing = errors.New("collect all the artifact pieces before assembling the puzzle")
)

// Angles are the orientations a puzzle cell can take, in degrees.
var Angles = [4]int{0, 90, 180, 270}

// IntN draws a uniform integer in [0, n). *rand.Rand from math/rand/v2
// satisfies it.
type IntN interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Puzzle is the 2x2 rotation grid of one artifact. The starting
// orientation is random per opening and never stored; only the solved
// outcome is.
type Puzzle struct {
	state    *State
	artifact models.ArtifactID

	mu     sync.Mutex
	rot    [models.SlotsPerArtifact]int
	solved bool
}

// OpenPuzzle opens the artifact's puzzle. A solved artifact opens solved
// with every cell upright. rng may be nil.
func OpenPuzzle(ctx context.Context, state *State, a models.ArtifactID, rng IntN) (*Puzzle, error) {
	if !knownArtifact(a) {
		return nil, ErrUnknownArtifact
	}
	if state.HaveCount(a) < models.SlotsPerArtifact {
		return nil, ErrPiecesMissing
	}
	p := &Puzzle{state: state, artifact: a}
	if state.IsSolved(a) {
		p.solved = true
		return p, nil
	}
	if rng == nil {
		rng = globalRand{}
	}
	for i := range p.rot {
		p.rot[i] = Angles[rng.IntN(len(Angles))]
	}
	// a lucky draw can already be upright
	if p.upright() {
		p.solved = true
		state.MarkSolved(ctx, a)
	}
	return p, nil
}

func (p *Puzzle) Artifact() models.ArtifactID { return p.artifact }

// Rotate turns cell by 90 degrees. It reports false when the puzzle is
// already solved or the cell does not exist.
func (p *Puzzle) Rotate(ctx context.Context, cell int) bool {
	p.mu.Lock()
	if p.solved || cell < 0 || cell >= len(p.rot) {
		p.mu.Unlock()
		return false
	}
	p.rot[cell] = (p.rot[cell] + 90) % 360
	justSolved := p.upright()
	if justSolved {
		p.solved = true
	}
	p.mu.Unlock()

	if justSolved {
		p.state.MarkSolved(ctx, p.artifact)
	}
	return true
}

// Rotations returns the current angle of every cell.
func (p *Puzzle) Rotations() [models.SlotsPerArtifact]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rot
}

func (p *Puzzle) Solved() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.solved
}

func (p *Puzzle) upright() bool {
	for _, d := range p.rot {
		if d%360 != 0 {
			return false
		}
	}
	return true
}
