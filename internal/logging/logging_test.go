package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zap.DebugLevel, false},
		{"INFO", zap.InfoLevel, false},
		{"", zap.InfoLevel, false},
		{"warn", zap.WarnLevel, false},
		{"warning", zap.WarnLevel, false},
		{"error", zap.ErrorLevel, false},
		{"loud", zap.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rover.log")
	log, err := New(Options{File: path, Level: "debug", MaxSizeMB: 1})
	require.NoError(t, err)

	Component(log, "session").Info("scan started", zap.Int("duration_s", 7))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	line := strings.TrimSpace(strings.Split(string(data), "\n")[0])
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "scan started", entry["message"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "session", entry["component"])
	assert.EqualValues(t, 7, entry["duration_s"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewFiltersBelowLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rover.log")
	log, err := New(Options{File: path, Level: "warn"})
	require.NoError(t, err)

	log.Info("dropped")
	log.Warn("kept")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := New(Options{File: filepath.Join(t.TempDir(), "x.log"), Level: "chatty"})
	require.Error(t, err)

	_, err = New(Options{Level: "info"})
	require.Error(t, err)
}

func TestComponentNilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		Component(nil, "radar").Info("noop")
	})
}
