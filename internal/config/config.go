package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// RSSI to distance estimation
	MeasuredPower = -59.0 // RSSI at 1 meter (dBm)
	PathLossExp   = 2.5   // Path loss exponent (N)

	// Scan session
	ScanDuration    = 7 * time.Second // One bounded discovery window
	AllowDuplicates = true            // Report every advertisement, not just the first

	// Connection handshake
	SettleDelay = 900 * time.Millisecond // Let bonding finish before service discovery

	// Drive control
	DefaultSpeed = 120 // PWM slider start value
	SpeedStep    = 5   // Slider step
	MaxSpeed     = 255 // PWM slider upper bound

	// Radar buckets (raw sensor units)
	NearMax = 10
	MidMax  = 20
	FarMax  = 30

	// Radar display
	AspectRatio   = 0.5  // Terminal char aspect correction (chars are ~2:1 tall)
	RingCount     = 3    // Near, Mid, Far
	SweepSpeedRPM = 20   // Servo sweeps per minute (one 0-180-0 pass)
	SweepTrailDeg = 25.0 // Sweep trail angle in degrees
	TargetFPS     = 30   // Target frames per second

	// History
	SignalHistoryLen = 64 // RSSI samples kept per peripheral for the sparkline

	// App
	AppName    = "ROVER-RADAR"
	AppVersion = "1.0"
)

// Config holds the user-tunable settings. Zero values are never used
// directly; Load starts from Default and overlays the file.
type Config struct {
	Adapter string        `yaml:"adapter"`
	Demo    bool          `yaml:"demo"`
	Scan    ScanConfig    `yaml:"scan"`
	Connect ConnectConfig `yaml:"connect"`
	Control ControlConfig `yaml:"control"`
	Log     LogConfig     `yaml:"log"`
}

// ScanConfig holds discovery settings.
type ScanConfig struct {
	Duration        time.Duration `yaml:"duration"`
	AllowDuplicates bool          `yaml:"allow_duplicates"`
}

// ConnectConfig holds handshake settings.
type ConnectConfig struct {
	SettleDelay time.Duration `yaml:"settle_delay"`
}

// ControlConfig holds drive settings.
type ControlConfig struct {
	Speed int `yaml:"speed"`
}

// LogConfig holds log file settings.
type LogConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// DefaultConfigPath returns ~/.config/rover-radar/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "rover-radar", "config.yaml")
}

// DefaultLogPath returns ~/.local/state/rover-radar/rover-radar.log.
func DefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "rover-radar.log"
	}
	return filepath.Join(home, ".local", "state", "rover-radar", "rover-radar.log")
}

// Default returns a Config populated with the built-in constants.
func Default() *Config {
	return &Config{
		Adapter: "hci0",
		Scan: ScanConfig{
			Duration:        ScanDuration,
			AllowDuplicates: AllowDuplicates,
		},
		Connect: ConnectConfig{
			SettleDelay: SettleDelay,
		},
		Control: ControlConfig{
			Speed: DefaultSpeed,
		},
		Log: LogConfig{
			File:       DefaultLogPath(),
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
	}
}

// Load reads a YAML config file on top of Default. A leading ~ in
// log.file is expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.Log.File = expandTilde(cfg.Log.File)
	return cfg, nil
}

// LoadOrDefault behaves like Load but returns Default when the file
// does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Scan.Duration <= 0 {
		return fmt.Errorf("scan.duration must be > 0, got %s", c.Scan.Duration)
	}
	if c.Connect.SettleDelay <= 0 {
		return fmt.Errorf("connect.settle_delay must be > 0, got %s", c.Connect.SettleDelay)
	}
	if c.Control.Speed < 0 || c.Control.Speed > MaxSpeed {
		return fmt.Errorf("control.speed must be within 0..%d, got %d", MaxSpeed, c.Control.Speed)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	if c.Log.File == "" {
		return fmt.Errorf("log.file must not be empty")
	}
	return nil
}

func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
