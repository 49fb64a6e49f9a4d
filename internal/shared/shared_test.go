package shared

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		name string
		ms   int
		want string
	}{
		{name: "zero", ms: 0, want: "0:00"},
		{name: "under a minute", ms: 9_500, want: "0:09"},
		{name: "minutes", ms: 215_000, want: "3:35"},
		{name: "over an hour", ms: 3_725_000, want: "62:05"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.ms); got != tt.want {
				t.Errorf("FormatDuration(%d) = %v, want %v", tt.ms, got, tt.want)
			}
		})
	}
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState failed: %v", err)
	}
	b, _ := GenerateState()

	if a == "" || a == b {
		t.Errorf("expected distinct non-empty states, got %q and %q", a, b)
	}
	if strings.ContainsAny(a, "+/=") {
		t.Errorf("state should be URL safe: %q", a)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)

	ApplyLogLevel(logger, "warn")
	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn should be logged")
	}

	ApplyLogLevel(logger, "bogus")
	if logger.GetLevel() != log.WarnLevel {
		t.Errorf("unknown level should be ignored, got %v", logger.GetLevel())
	}
}
