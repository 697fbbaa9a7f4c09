package models

import "testing"

func TestParsePiece(t *testing.T) {
	tests := []struct {
		in      string
		want    Piece
		wantErr bool
	}{
		{in: "a1:0", want: Piece{Artifact: "a1", Slot: 0}},
		{in: "a5:3", want: Piece{Artifact: "a5", Slot: 3}},
		{in: "a5:4", wantErr: true},
		{in: "a5:-1", wantErr: true},
		{in: "a5", wantErr: true},
		{in: ":1", wantErr: true},
		{in: "a2:x", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParsePiece(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParsePiece(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParsePiece(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParsePiece(%q) = %+v", tt.in, got)
		}
		if got.String() != tt.in {
			t.Fatalf("String() = %q, want %q", got.String(), tt.in)
		}
	}
}
