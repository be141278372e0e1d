package logging

import (
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogLevelDebug},
		{"INFO", LogLevelInfo},
		{"warning", LogLevelWarn},
		{"ERROR", LogLevelError},
		{"bogus", LogLevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var sb strings.Builder
	log := New(Config{Level: LogLevelWarn, Output: &sb, Prefix: "test"})

	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("visible warning")
	log.Error("visible error")

	out := sb.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("below-level messages leaked: %q", out)
	}
	if !strings.Contains(out, "visible warning") || !strings.Contains(out, "visible error") {
		t.Errorf("expected warn and error output, got %q", out)
	}
}

func TestLoggerFields(t *testing.T) {
	var sb strings.Builder
	log := New(Config{Level: LogLevelDebug, Output: &sb})

	log.WithComponent("scheduler").WithField("root", "r1").Info("rescan")

	out := sb.String()
	if !strings.Contains(out, "component=scheduler") || !strings.Contains(out, "root=r1") {
		t.Errorf("fields missing from output: %q", out)
	}
}

func TestNullLoggerSilent(t *testing.T) {
	// Must not panic and must write nothing.
	NullLogger.Error("nothing")
}
