package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, "info", cfg.Level)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		expected string
	}{
		{"debug", "debug", "DEBUG"},
		{"Debug uppercase", "DEBUG", "DEBUG"},
		{"info", "info", "INFO"},
		{"warn", "warn", "WARN"},
		{"warning alias", "warning", "WARN"},
		{"error", "error", "ERROR"},
		{"unknown defaults to info", "unknown", "INFO"},
		{"empty defaults to info", "", "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level := parseLevel(tt.level)
			assert.Equal(t, tt.expected, level.String())
		})
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "json", Level: "debug"}, &buf)

	l.Debug("scrape started", "rom", "Sonic")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "scrape started", entry["msg"])
	assert.Equal(t, "Sonic", entry["rom"])
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "text", Level: "warn"}, &buf)

	l.Info("hidden")
	assert.Empty(t, buf.String())

	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestGet_ReturnsDefaultBeforeSetup(t *testing.T) {
	oldLogger := logger
	logger = nil
	defer func() { logger = oldLogger }()

	assert.NotNil(t, Get())
	assert.NotNil(t, OrDefault(nil))
}

func TestOrDefault_PrefersGiven(t *testing.T) {
	l := Discard()
	assert.Same(t, l, OrDefault(l))
}

func TestLogFunctions_DoNotPanic(t *testing.T) {
	Setup(DefaultConfig())

	assert.NotPanics(t, func() { Debug("test message") })
	assert.NotPanics(t, func() { Info("test message") })
	assert.NotPanics(t, func() { Warn("test message") })
	assert.NotPanics(t, func() { Error("test message") })
}
