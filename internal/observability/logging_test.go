package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseLevel verifies the level name mapping, including the empty default
// and the error on unknown names.
func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"ERROR", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

// TestNewLogger_JSON verifies that the JSON format produces parseable
// structured records.
func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo, LogFormatJSON)

	logger.Info("something happened", "node", "a")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "something happened", record["msg"])
	assert.Equal(t, "a", record["node"])
}

// TestNewLogger_TextAndLevel verifies the text default and that records below
// the configured level are suppressed.
func TestNewLogger_TextAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn, LogFormatText)

	logger.Info("too quiet")
	assert.Empty(t, buf.String())

	logger.Warn("loud enough")
	assert.True(t, strings.Contains(buf.String(), "loud enough"))
	assert.False(t, strings.HasPrefix(buf.String(), "{"), "text format is not JSON")
}
