package models

import (
	"fmt"
	"strconv"
	"strings"
)

// SlotsPerArtifact is the number of pieces every artifact is split into.
const SlotsPerArtifact = 4

// ArtifactID names one of the collectible artifacts (a1..a5).
type ArtifactID string

// Piece is one slot of an artifact.
type Piece struct {
	Artifact ArtifactID
	Slot     int
}

// String returns the persisted form "artifactId:slot".
func (p Piece) String() string {
	return fmt.Sprintf("%s:%d", p.Artifact, p.Slot)
}

// ParsePiece parses the persisted "artifactId:slot" form.
func ParsePiece(s string) (Piece, error) {
	a, slot, ok := strings.Cut(s, ":")
	if !ok || a == "" {
		return Piece{}, fmt.Errorf("malformed piece %q", s)
	}
	i, err := strconv.Atoi(slot)
	if err != nil || i < 0 || i >= SlotsPerArtifact {
		return Piece{}, fmt.Errorf("malformed piece slot %q", s)
	}
	return Piece{Artifact: ArtifactID(a), Slot: i}, nil
}

// PiecesOf lists the four slots of an artifact in order.
func PiecesOf(a ArtifactID) [SlotsPerArtifact]Piece {
	var out [SlotsPerArtifact]Piece
	for i := range out {
		out[i] = Piece{Artifact: a, Slot: i}
	}
	return out
}
