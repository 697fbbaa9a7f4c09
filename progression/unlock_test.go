package progression

import (
	"testing"

	"github.com/mark31d/NobleStarBurstLegacy/models"
)

func TestPiecesFor_Deterministic(t *testing.T) {
	for id := range articlePieces {
		first, ok := PiecesFor(id)
		if !ok {
			t.Fatalf("PiecesFor(%s) not found", id)
		}
		for i := 0; i < 3; i++ {
			again, _ := PiecesFor(id)
			if again != first {
				t.Fatalf("PiecesFor(%s) changed: %v vs %v", id, first, again)
			}
		}
	}
}

func TestPiecesFor_ExactBijectionOverCatalog(t *testing.T) {
	catalog := loadCatalog(t)
	seen := make(map[models.Piece]string)
	for _, a := range catalog.Articles {
		pair, ok := PiecesFor(a.ID)
		if !ok {
			t.Fatalf("catalog article %s has no pieces", a.ID)
		}
		for _, p := range pair {
			if prev, dup := seen[p]; dup {
				t.Fatalf("piece %s given by both %s and %s", p, prev, a.ID)
			}
			seen[p] = a.ID
		}
	}
	if len(seen) != len(Artifacts)*models.SlotsPerArtifact {
		t.Fatalf("expected %d slots, got %d", len(Artifacts)*models.SlotsPerArtifact, len(seen))
	}
	for _, a := range Artifacts {
		for _, p := range models.PiecesOf(a) {
			if _, ok := seen[p]; !ok {
				t.Fatalf("slot %s is never unlocked", p)
			}
		}
	}
}

func TestPiecesFor_Unknown(t *testing.T) {
	if _, ok := PiecesFor("ramesses"); ok {
		t.Fatalf("unknown article should not unlock pieces")
	}
}

func TestSourceArticle(t *testing.T) {
	id, ok := SourceArticle(models.Piece{Artifact: "a3", Slot: 3})
	if !ok || id != "sobekneferu" {
		t.Fatalf("SourceArticle = %q, %v", id, ok)
	}
	if _, ok := SourceArticle(models.Piece{Artifact: "a9", Slot: 0}); ok {
		t.Fatalf("unknown piece should have no source")
	}
}
