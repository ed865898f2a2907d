package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
		wantErr  bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{" WARN ", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lvl, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if lvl != tt.expected {
				t.Errorf("Expected level %s, got %s", tt.expected, lvl)
			}
		})
	}
}

func TestNew(t *testing.T) {
	logger, err := New("debug")
	if err != nil {
		t.Fatalf("Failed to build logger: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("Expected debug level to be enabled")
	}

	if _, err := New("loud"); err == nil {
		t.Error("Expected unknown level to be rejected")
	}
}
