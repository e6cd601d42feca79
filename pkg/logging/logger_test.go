package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Expected default level to be Info, got %s", cfg.Level)
	}

	if cfg.Pretty != false {
		t.Error("Expected default pretty to be false")
	}
}

func TestSetup(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{
		Level:  LevelDebug,
		Pretty: false,
		Output: buf,
	})

	logger.Debug().Msg("resolver debug message")

	if !strings.Contains(buf.String(), "resolver debug message") {
		t.Errorf("Expected output to contain the message, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    LogLevel
		expected zerolog.Level
	}{
		{LevelDebug, zerolog.DebugLevel},
		{LevelInfo, zerolog.InfoLevel},
		{LevelWarn, zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{LevelError, zerolog.ErrorLevel},
		{"invalid", zerolog.InfoLevel}, // Should default to Info
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			result := parseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: buf,
	})

	logger := NewLogger("resolver")
	logger.Info().Msg("run complete")

	output := buf.String()
	if !strings.Contains(output, "resolver") {
		t.Errorf("Expected output to contain the component, got %q", output)
	}
	if !strings.Contains(output, "run complete") {
		t.Errorf("Expected output to contain the message, got %q", output)
	}
}

func TestLogLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{
		Level:  LevelWarn,
		Pretty: false,
		Output: buf,
	})

	logger := NewLogger("search-client")

	// Below warn level, filtered out.
	logger.Debug().Msg("page fetched")
	logger.Info().Msg("batch complete")

	// Warn level and above, included.
	logger.Warn().Msg("batch failed")
	logger.Error().Msg("token rejected")

	output := buf.String()

	if strings.Contains(output, "page fetched") {
		t.Error("Debug message should be filtered out at Warn level")
	}
	if strings.Contains(output, "batch complete") {
		t.Error("Info message should be filtered out at Warn level")
	}
	if !strings.Contains(output, "batch failed") {
		t.Error("Warn message should be included at Warn level")
	}
	if !strings.Contains(output, "token rejected") {
		t.Error("Error message should be included at Warn level")
	}
}
