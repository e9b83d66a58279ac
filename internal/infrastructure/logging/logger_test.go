package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/nerrad567/lightmount-core/internal/infrastructure/config"
)

func TestNew_Formats(t *testing.T) {
	for _, format := range []string{"json", "text"} {
		for _, output := range []string{"stdout", "stderr"} {
			if New(config.LoggingConfig{Level: "info", Format: format, Output: output}, "1.0.0") == nil {
				t.Fatalf("New(%s, %s) returned nil", format, output)
			}
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLogger_DefaultFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, "2.1.0", &buf)

	logger.Component("fixture").Info("fixture spawned", "fixture", "fix-1")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v (%s)", err, buf.String())
	}
	want := map[string]string{
		"service":   ServiceName,
		"version":   "2.1.0",
		"component": "fixture",
		"fixture":   "fix-1",
		"msg":       "fixture spawned",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %q", k, entry[k], v)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "warn", Format: "text"}, "dev", &buf)

	logger.Debug("transition ignored")
	logger.Info("fixture spawned")
	logger.Warn("recorder queue full")

	out := buf.String()
	if strings.Contains(out, "transition ignored") || strings.Contains(out, "fixture spawned") {
		t.Errorf("entries below warn were written: %s", out)
	}
	if !strings.Contains(out, "recorder queue full") {
		t.Errorf("warn entry missing: %s", out)
	}
}

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default() returned nil")
	}
}
