package progression

import "github.com/mark31d/NobleStarBurstLegacy/models"

// articlePieces assigns every article exactly two artifact slots. The ten
// articles cover the twenty slots of the five artifacts with no overlap.
var articlePieces = map[string][2]models.Piece{
	"hatshepsut":   {{Artifact: "a1", Slot: 0}, {Artifact: "a1", Slot: 1}},
	"nefertiti":    {{Artifact: "a1", Slot: 2}, {Artifact: "a1", Slot: 3}},
	"cleopatra":    {{Artifact: "a2", Slot: 0}, {Artifact: "a2", Slot: 1}},
	"nefertari":    {{Artifact: "a2", Slot: 2}, {Artifact: "a2", Slot: 3}},
	"ahhotep":      {{Artifact: "a3", Slot: 0}, {Artifact: "a3", Slot: 1}},
	"sobekneferu":  {{Artifact: "a3", Slot: 2}, {Artifact: "a3", Slot: 3}},
	"ankhesenamun": {{Artifact: "a4", Slot: 0}, {Artifact: "a4", Slot: 1}},
	"tiye":         {{Artifact: "a4", Slot: 2}, {Artifact: "a4", Slot: 3}},
	"merneith":     {{Artifact: "a5", Slot: 0}, {Artifact: "a5", Slot: 1}},
	"twosret":      {{Artifact: "a5", Slot: 2}, {Artifact: "a5", Slot: 3}},
}

// Artifacts lists the collectible artifacts in display order.
var Artifacts = []models.ArtifactID{"a1", "a2", "a3", "a4", "a5"}

// PiecesFor returns the two pieces a correct answer to the article unlocks.
func PiecesFor(articleID string) ([2]models.Piece, bool) {
	p, ok := articlePieces[articleID]
	return p, ok
}

// SourceArticle returns the article whose quiz unlocks p.
func SourceArticle(p models.Piece) (string, bool) {
	for id, pair := range articlePieces {
		if pair[0] == p || pair[1] == p {
			return id, true
		}
	}
	return "", false
}

func knownArtifact(a models.ArtifactID) bool {
	for _, k := range Artifacts {
		if k == a {
			return true
		}
	}
	return false
}
