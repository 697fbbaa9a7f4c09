package progression

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mark31d/NobleStarBurstLegacy/database"
	"github.com/mark31d/NobleStarBurstLegacy/logger"
	"github.com/mark31d/NobleStarBurstLegacy/models"
)

func TestRepository_LoadAllDefaultsOnEmptyStore(t *testing.T) {
	repo := NewRepository(database.NewMemory(), logger.Nop())
	got := repo.LoadAll(context.Background())
	if !reflect.DeepEqual(got, EmptySnapshot()) {
		t.Fatalf("unexpected defaults: %+v", got)
	}
}

func TestRepository_RoundTripAcrossRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "queens.db")

	db, err := database.New(path)
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	repo := NewRepository(db, logger.Nop())

	want := EmptySnapshot()
	want.Pieces[models.Piece{Artifact: "a1", Slot: 0}] = struct{}{}
	want.Pieces[models.Piece{Artifact: "a4", Slot: 3}] = struct{}{}
	want.Solved["a2"] = struct{}{}
	want.Favorites["tiye"] = struct{}{}
	want.CorrectAnswers["hatshepsut"] = struct{}{}
	want.CorrectAnswers["twosret"] = struct{}{}
	want.Settings = models.Settings{Music: false, Sounds: true, Vibration: false}
	want.OnboardingSeen = true
	want.HintSeen = true

	steps := []error{
		repo.SavePieces(ctx, want.Pieces),
		repo.SaveSolved(ctx, want.Solved),
		repo.SaveFavorites(ctx, want.Favorites),
		repo.SaveCorrectAnswers(ctx, want.CorrectAnswers),
		repo.SaveSettings(ctx, want.Settings),
		repo.MarkOnboardingSeen(ctx),
		repo.MarkHintSeen(ctx),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("save step %d: %v", i, err)
		}
	}
	db.Close()

	db, err = database.New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	got := NewRepository(db, logger.Nop()).LoadAll(ctx)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestRepository_EachCategoryIndependent(t *testing.T) {
	ctx := context.Background()
	mem := database.NewMemory()
	repo := NewRepository(mem, logger.Nop())

	favs := map[string]struct{}{"nefertiti": {}}
	if err := repo.SaveFavorites(ctx, favs); err != nil {
		t.Fatalf("SaveFavorites: %v", err)
	}
	got := repo.LoadAll(ctx)
	if !reflect.DeepEqual(got.Favorites, favs) {
		t.Fatalf("favorites = %v", got.Favorites)
	}
	if len(got.Pieces) != 0 || len(got.Solved) != 0 || len(got.CorrectAnswers) != 0 {
		t.Fatalf("other categories touched: %+v", got)
	}
	if got.Settings != models.DefaultSettings() {
		t.Fatalf("settings touched: %+v", got.Settings)
	}
}

func TestRepository_MalformedPayloadsReadAsDefaults(t *testing.T) {
	ctx := context.Background()
	mem := database.NewMemory()
	mem.Set(ctx, KeyPieces, `["a1:0","garbage","a9:7",42]`)
	mem.Set(ctx, KeySolved, `{not json`)
	mem.Set(ctx, KeyFavorites, `"tiye"`)
	mem.Set(ctx, KeySettings, `[true]`)
	mem.Set(ctx, KeyOnboarding, `true`)

	got := NewRepository(mem, logger.Nop()).LoadAll(ctx)
	if len(got.Pieces) != 0 {
		t.Fatalf("array with a non-string element should read as empty, got %v", got.Pieces)
	}
	if len(got.Solved) != 0 || len(got.Favorites) != 0 {
		t.Fatalf("malformed sets should be empty: %+v", got)
	}
	if got.Settings != models.DefaultSettings() {
		t.Fatalf("malformed settings should be defaults: %+v", got.Settings)
	}
	if got.OnboardingSeen {
		t.Fatalf("only the literal \"1\" marks onboarding seen")
	}
}

func TestRepository_DropsMalformedPieceEntries(t *testing.T) {
	ctx := context.Background()
	mem := database.NewMemory()
	mem.Set(ctx, KeyPieces, `["a1:0","garbage","a2:9","a3:2"]`)

	got := NewRepository(mem, logger.Nop()).LoadPieces(ctx)
	want := map[models.Piece]struct{}{
		{Artifact: "a1", Slot: 0}: {},
		{Artifact: "a3", Slot: 2}: {},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("pieces = %v", got)
	}
}

func TestRepository_PartialSettingsMergeOverDefaults(t *testing.T) {
	ctx := context.Background()
	mem := database.NewMemory()
	mem.Set(ctx, KeySettings, `{"sounds":false}`)

	got := NewRepository(mem, logger.Nop()).LoadSettings(ctx)
	want := models.Settings{Music: true, Sounds: false, Vibration: true}
	if got != want {
		t.Fatalf("settings = %+v, want %+v", got, want)
	}
}

func TestRepository_SetsAreWrittenSorted(t *testing.T) {
	ctx := context.Background()
	mem := database.NewMemory()
	repo := NewRepository(mem, logger.Nop())

	repo.SaveCorrectAnswers(ctx, map[string]struct{}{"tiye": {}, "ahhotep": {}, "merneith": {}})
	raw, _ := mem.Get(ctx, KeyCorrectAnswers)
	if raw != `["ahhotep","merneith","tiye"]` {
		t.Fatalf("unexpected payload %s", raw)
	}
	repo.SavePieces(ctx, map[models.Piece]struct{}{{Artifact: "a2", Slot: 1}: {}, {Artifact: "a1", Slot: 3}: {}})
	raw, _ = mem.Get(ctx, KeyPieces)
	if raw != `["a1:3","a2:1"]` {
		t.Fatalf("unexpected payload %s", raw)
	}
}

func TestRepository_ResetAllRestoresDefaults(t *testing.T) {
	ctx := context.Background()
	mem := database.NewMemory()
	repo := NewRepository(mem, logger.Nop())

	for _, k := range Keys() {
		mem.Set(ctx, k, `["x"]`)
	}
	repo.SaveSettings(ctx, models.Settings{})
	repo.MarkOnboardingSeen(ctx)
	repo.MarkHintSeen(ctx)

	if err := repo.ResetAll(ctx); err != nil {
		t.Fatalf("ResetAll: %v", err)
	}
	if mem.Len() != 0 {
		t.Fatalf("expected every key removed, %d left", mem.Len())
	}
	if got := repo.LoadAll(ctx); !reflect.DeepEqual(got, EmptySnapshot()) {
		t.Fatalf("after reset: %+v", got)
	}
}

func TestRepository_ResetAllLeavesForeignKeys(t *testing.T) {
	ctx := context.Background()
	mem := database.NewMemory()
	mem.Set(ctx, "bsp:stars", "12")
	mem.Set(ctx, KeyFavorites, `["tiye"]`)

	if err := NewRepository(mem, logger.Nop()).ResetAll(ctx); err != nil {
		t.Fatalf("ResetAll: %v", err)
	}
	if v, err := mem.Get(ctx, "bsp:stars"); err != nil || v != "12" {
		t.Fatalf("foreign key removed: %q %v", v, err)
	}
}
