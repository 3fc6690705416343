package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" DEBUG ", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	t.Run("text respects level", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, "warn", false)
		l.Info("hidden")
		l.Warn("shown", "room", "abc")

		out := buf.String()
		if strings.Contains(out, "hidden") {
			t.Errorf("info message logged at warn level: %q", out)
		}
		if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "room=abc") {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		New(&buf, "info", true).With("component", "session.launcher").Info("provisioned")

		var rec map[string]any
		if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
			t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
		}
		if rec["msg"] != "provisioned" || rec["component"] != "session.launcher" {
			t.Errorf("record = %v", rec)
		}
	})
}

func TestDiscard(t *testing.T) {
	l := Discard()
	if l == nil {
		t.Fatal("Discard() = nil")
	}
	l.Error("dropped")
}
