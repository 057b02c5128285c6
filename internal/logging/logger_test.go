package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_LevelFiltering(t *testing.T) {
	tests := []struct {
		level   string
		logged  []string
		dropped []string
	}{
		{level: "trace", logged: []string{"trace", "debug", "info"}},
		{level: "debug", logged: []string{"debug", "info"}, dropped: []string{"trace"}},
		{level: "info", logged: []string{"info", "warn"}, dropped: []string{"trace", "debug"}},
		{level: "warn", logged: []string{"warn", "error"}, dropped: []string{"info"}},
		{level: "error", logged: []string{"error"}, dropped: []string{"warn"}},
		{level: "invalid", logged: []string{"info"}, dropped: []string{"debug"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(Config{Level: tt.level, Output: &buf})

			logger.Trace().Msg("trace message")
			logger.Debug().Msg("debug message")
			logger.Info().Msg("info message")
			logger.Warn().Msg("warn message")
			logger.Error().Msg("error message")

			output := buf.String()
			for _, l := range tt.logged {
				if !strings.Contains(output, l+" message") {
					t.Errorf("expected %s message at level %s", l, tt.level)
				}
			}
			for _, l := range tt.dropped {
				if strings.Contains(output, l+" message") {
					t.Errorf("expected %s message to be dropped at level %s", l, tt.level)
				}
			}
		})
	}
}

func TestNew_LevelHierarchy(t *testing.T) {
	levels := []struct {
		level    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
	}

	for _, tc := range levels {
		t.Run(tc.level, func(t *testing.T) {
			logger := New(Config{Level: tc.level, Output: &bytes.Buffer{}})
			if logger.GetLevel() != tc.expected {
				t.Errorf("Expected level %v, got %v", tc.expected, logger.GetLevel())
			}
		})
	}
}

func TestNewWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithComponent(Config{Level: "info", Output: &buf}, "patch")

	logger.Info().Msg("test message")

	if !strings.Contains(buf.String(), `"component":"patch"`) {
		t.Errorf("Expected component field, got %q", buf.String())
	}
}

func TestNew_PrettyOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Pretty: true, Output: &buf})

	logger.Info().Msg("test message")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Error("Expected pretty output to contain message 'test message'")
	}
	if strings.Contains(output, "\x1b[") {
		t.Error("Expected no color codes when output is not a terminal")
	}
}

func TestNew_DefaultOutput(t *testing.T) {
	// Should not panic with a nil output.
	logger := New(Config{Level: "error"})
	logger.Error().Msg("test message")
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("bytes.Buffer is not a terminal")
	}
	if cfg := DefaultConfig(); cfg.Level != "info" {
		t.Errorf("Expected default level 'info', got '%s'", cfg.Level)
	}
}
