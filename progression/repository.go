// Package progression tracks what a user has earned: unlocked artifact
// pieces, solved artifacts, correctly answered quizzes, favorites and
// settings.
package progression

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/mark31d/NobleStarBurstLegacy/database"
	"github.com/mark31d/NobleStarBurstLegacy/logger"
	"github.com/mark31d/NobleStarBurstLegacy/models"
)

// Repository owns the typed accessors for every progression key. Loads
// never fail: missing, unreadable or malformed data reads as the default.
type Repository struct {
	store database.Store
	log   *logger.Logger
}

func NewRepository(store database.Store, log *logger.Logger) *Repository {
	return &Repository{store: store, log: log.With("component", "progression.Repository")}
}

// LoadAll reads every category concurrently.
func (r *Repository) LoadAll(ctx context.Context) Snapshot {
	snap := EmptySnapshot()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { snap.Pieces = r.LoadPieces(gctx); return nil })
	g.Go(func() error { snap.Solved = r.LoadSolved(gctx); return nil })
	g.Go(func() error { snap.Favorites = r.LoadFavorites(gctx); return nil })
	g.Go(func() error { snap.CorrectAnswers = r.LoadCorrectAnswers(gctx); return nil })
	g.Go(func() error { snap.Settings = r.LoadSettings(gctx); return nil })
	g.Go(func() error { snap.OnboardingSeen = r.OnboardingSeen(gctx); return nil })
	g.Go(func() error { snap.HintSeen = r.HintSeen(gctx); return nil })
	_ = g.Wait()
	return snap
}

func (r *Repository) LoadPieces(ctx context.Context) map[models.Piece]struct{} {
	out := make(map[models.Piece]struct{})
	for _, s := range r.loadStrings(ctx, KeyPieces) {
		p, err := models.ParsePiece(s)
		if err != nil {
			r.log.Debug("Dropping malformed piece", "value", s, "error", err)
			continue
		}
		out[p] = struct{}{}
	}
	return out
}

func (r *Repository) LoadSolved(ctx context.Context) map[models.ArtifactID]struct{} {
	out := make(map[models.ArtifactID]struct{})
	for _, s := range r.loadStrings(ctx, KeySolved) {
		out[models.ArtifactID(s)] = struct{}{}
	}
	return out
}

func (r *Repository) LoadFavorites(ctx context.Context) map[string]struct{} {
	return toSet(r.loadStrings(ctx, KeyFavorites))
}

func (r *Repository) LoadCorrectAnswers(ctx context.Context) map[string]struct{} {
	return toSet(r.loadStrings(ctx, KeyCorrectAnswers))
}

// LoadSettings merges whatever fields are stored over the defaults.
func (r *Repository) LoadSettings(ctx context.Context) models.Settings {
	raw, ok := r.get(ctx, KeySettings)
	if !ok {
		return models.DefaultSettings()
	}
	s := models.DefaultSettings()
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		r.log.Debug("Ignoring malformed settings", "error", err)
		return models.DefaultSettings()
	}
	return s
}

func (r *Repository) OnboardingSeen(ctx context.Context) bool {
	v, _ := r.get(ctx, KeyOnboarding)
	return v == flagSet
}

func (r *Repository) HintSeen(ctx context.Context) bool {
	v, _ := r.get(ctx, KeyHintSeen)
	return v == flagSet
}

func (r *Repository) SavePieces(ctx context.Context, pieces map[models.Piece]struct{}) error {
	out := make([]string, 0, len(pieces))
	for p := range pieces {
		out = append(out, p.String())
	}
	return r.saveStrings(ctx, KeyPieces, out)
}

func (r *Repository) SaveSolved(ctx context.Context, solved map[models.ArtifactID]struct{}) error {
	out := make([]string, 0, len(solved))
	for a := range solved {
		out = append(out, string(a))
	}
	return r.saveStrings(ctx, KeySolved, out)
}

func (r *Repository) SaveFavorites(ctx context.Context, favs map[string]struct{}) error {
	return r.saveStrings(ctx, KeyFavorites, fromSet(favs))
}

func (r *Repository) SaveCorrectAnswers(ctx context.Context, answers map[string]struct{}) error {
	return r.saveStrings(ctx, KeyCorrectAnswers, fromSet(answers))
}

func (r *Repository) SaveSettings(ctx context.Context, s models.Settings) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return r.store.Set(ctx, KeySettings, string(b))
}

func (r *Repository) MarkOnboardingSeen(ctx context.Context) error {
	return r.store.Set(ctx, KeyOnboarding, flagSet)
}

func (r *Repository) MarkHintSeen(ctx context.Context) error {
	return r.store.Set(ctx, KeyHintSeen, flagSet)
}

// ResetAll removes every progression key. A following LoadAll returns
// EmptySnapshot.
func (r *Repository) ResetAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, k := range Keys() {
		g.Go(func() error {
			if err := r.store.Remove(gctx, k); err != nil {
				return fmt.Errorf("reset %s: %w", k, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (r *Repository) get(ctx context.Context, key string) (string, bool) {
	v, err := r.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			r.log.Warn("Read failed, using default", "key", key, "error", err)
		}
		return "", false
	}
	return v, true
}

func (r *Repository) loadStrings(ctx context.Context, key string) []string {
	raw, ok := r.get(ctx, key)
	if !ok {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		r.log.Debug("Ignoring malformed payload", "key", key, "error", err)
		return nil
	}
	return out
}

// saveStrings writes a sorted JSON array so equal sets store equal payloads.
func (r *Repository) saveStrings(ctx context.Context, key string, values []string) error {
	sort.Strings(values)
	b, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return r.store.Set(ctx, key, string(b))
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}

func fromSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	return out
}
