package logger

import (
	"testing"

	"go.uber.org/zap"
)

func TestNew_LevelFollowsModeAndDebug(t *testing.T) {
	tests := []struct {
		mode      string
		debug     bool
		wantDebug bool
	}{
		{"dev", false, true},
		{"prod", false, false},
		{"production", true, true},
		{"PROD", false, false},
	}
	for _, tt := range tests {
		l, err := New(tt.mode, tt.debug)
		if err != nil {
			t.Fatalf("New(%q, %v): %v", tt.mode, tt.debug, err)
		}
		core := l.SugaredLogger.Desugar().Core()
		if got := core.Enabled(zap.DebugLevel); got != tt.wantDebug {
			t.Fatalf("New(%q, %v) debug enabled = %v, want %v", tt.mode, tt.debug, got, tt.wantDebug)
		}
		if !core.Enabled(zap.InfoLevel) {
			t.Fatalf("New(%q, %v) drops Info", tt.mode, tt.debug)
		}
	}
}
