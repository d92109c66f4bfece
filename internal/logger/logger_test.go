package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogLevelDebug},
		{"DEBUG", LogLevelDebug},
		{"warn", LogLevelWarn},
		{"warning", LogLevelWarn},
		{"error", LogLevelError},
		{"info", LogLevelInfo},
		{"", LogLevelInfo},
		{"verbose", LogLevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestSlogLogger_WritesFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewSlogLogger(&buf, LogLevelDebug, nil).Module("records")

	log.Info("pwa record created",
		String("id", "abc"),
		Int("icons", 3),
		Bool("owned", true),
		Error(errors.New("boom")))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "pwa record created", entry["msg"])
	assert.Equal(t, "records", entry["module"])
	assert.Equal(t, "abc", entry["id"])
	assert.EqualValues(t, 3, entry["icons"])
	assert.Equal(t, true, entry["owned"])
	assert.Equal(t, "boom", entry["error"])
}

func TestSlogLogger_LevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewSlogLogger(&buf, LogLevelWarn, nil)

	log.Debug("hidden")
	log.Info("hidden")
	assert.Zero(t, buf.Len())
	assert.False(t, log.Enabled(LogLevelInfo))
	assert.True(t, log.Enabled(LogLevelError))

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestSlogLogger_WithCarriesFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewSlogLogger(&buf, LogLevelInfo, nil).With(String("request_id", "r-1"))
	log.Info("first")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "r-1", entry["request_id"])
}

func TestErrorField_Nil(t *testing.T) {
	t.Parallel()
	f := Error(nil)
	assert.Equal(t, "error", f.Key)
	assert.Nil(t, f.Value)
}
