package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zap.DebugLevel},
		{"info", zap.InfoLevel},
		{"", zap.InfoLevel},
		{"warn", zap.WarnLevel},
		{"error", zap.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Errorf("%q: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("%q: got %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := New("loud"); err == nil {
		t.Error("New accepted unknown level")
	}
}

func TestNewWritesJSONAtLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.log")

	log, err := New("warn", path)
	if err != nil {
		t.Fatal(err)
	}
	log.Info("dropped")
	log.Warn("collider missing", zap.Uint32("entity", 3))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one entry, got %d: %q", len(lines), data)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("entry is not json: %v", err)
	}
	if entry["msg"] != "collider missing" || entry["level"] != "warn" {
		t.Errorf("unexpected entry %v", entry)
	}
	if entry["entity"] != float64(3) {
		t.Errorf("missing field: %v", entry)
	}
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Error("ignored")
	if log.Core().Enabled(zap.ErrorLevel) {
		t.Error("nop logger should be disabled")
	}
}
