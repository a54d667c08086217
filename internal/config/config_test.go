package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "hci0", cfg.Adapter)
	assert.False(t, cfg.Demo)
	assert.Equal(t, 7*time.Second, cfg.Scan.Duration)
	assert.True(t, cfg.Scan.AllowDuplicates)
	assert.Equal(t, 900*time.Millisecond, cfg.Connect.SettleDelay)
	assert.Equal(t, 120, cfg.Control.Speed)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NotEmpty(t, cfg.Log.File)
	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	yamlContent := `
adapter: hci1
demo: true
scan:
  duration: 3s
  allow_duplicates: false
connect:
  settle_delay: 250ms
control:
  speed: 200
log:
  file: /tmp/rover.log
  level: debug
`
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(yamlContent), 0o644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "hci1", cfg.Adapter)
	assert.True(t, cfg.Demo)
	assert.Equal(t, 3*time.Second, cfg.Scan.Duration)
	assert.False(t, cfg.Scan.AllowDuplicates)
	assert.Equal(t, 250*time.Millisecond, cfg.Connect.SettleDelay)
	assert.Equal(t, 200, cfg.Control.Speed)
	assert.Equal(t, "/tmp/rover.log", cfg.Log.File)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched fields keep their defaults
	assert.Equal(t, 10, cfg.Log.MaxSizeMB)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("control:\n  speed: 45\n"), 0o644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, 45, cfg.Control.Speed)
	assert.Equal(t, ScanDuration, cfg.Scan.Duration)
	assert.Equal(t, SettleDelay, cfg.Connect.SettleDelay)
}

func TestLoadExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log:\n  file: ~/logs/rover.log\n"), 0o644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "logs", "rover.log"), cfg.Log.File)
}

func TestLoadInvalidYAML(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("scan: [unclosed"), 0o644))

	_, err := Load(cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Control.Speed, cfg.Control.Speed)

	cfg, err = LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, "hci0", cfg.Adapter)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero scan duration", func(c *Config) { c.Scan.Duration = 0 }, "scan.duration"},
		{"negative settle delay", func(c *Config) { c.Connect.SettleDelay = -time.Second }, "connect.settle_delay"},
		{"zero settle delay", func(c *Config) { c.Connect.SettleDelay = 0 }, "connect.settle_delay"},
		{"speed too high", func(c *Config) { c.Control.Speed = 256 }, "control.speed"},
		{"speed negative", func(c *Config) { c.Control.Speed = -5 }, "control.speed"},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"empty log file", func(c *Config) { c.Log.File = "" }, "log.file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.wantErr), "error %q should mention %q", err, tt.wantErr)
		})
	}
}

func TestValidateAcceptsUpperCaseLevel(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "WARN"
	assert.NoError(t, cfg.Validate())
}
