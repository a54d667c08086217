package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rover-radar.klederson.com/internal/app"
	"rover-radar.klederson.com/internal/bluetooth"
	"rover-radar.klederson.com/internal/config"
	"rover-radar.klederson.com/internal/logging"
	"rover-radar.klederson.com/internal/permission"
	"rover-radar.klederson.com/internal/radar"
	"rover-radar.klederson.com/internal/session"
)

var (
	flagDemo     bool
	flagAdapter  string
	flagConfig   string
	flagSpeed    int
	flagLogLevel string
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "rover-radar",
		Short:   "Rover Radar - drive a BLE rover and watch its ultrasonic radar",
		Version: config.AppVersion,
		Long: `Rover Radar scans for Bluetooth Low Energy peripherals, connects to the
rover's serial bridge and sends drive and radar sweep commands. Radar
samples are plotted on a half-disc ASCII radar.

Requires sudo or CAP_NET_ADMIN capability for real Bluetooth scanning.
Use --demo flag for demonstration mode without Bluetooth hardware.`,
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.Flags().BoolVar(&flagDemo, "demo", false, "Run in demo mode with a simulated rover (no Bluetooth required)")
	rootCmd.Flags().StringVar(&flagAdapter, "adapter", "hci0", "Bluetooth adapter to use")
	rootCmd.Flags().StringVar(&flagConfig, "config", config.DefaultConfigPath(), "Path to the YAML config file")
	rootCmd.Flags().IntVar(&flagSpeed, "speed", config.DefaultSpeed, "Initial drive speed (0-255)")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault(flagConfig)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("demo") {
		cfg.Demo = flagDemo
	}
	if cmd.Flags().Changed("adapter") {
		cfg.Adapter = flagAdapter
	}
	if cmd.Flags().Changed("speed") {
		cfg.Control.Speed = flagSpeed
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logging.New(logging.Options{
		File:       cfg.Log.File,
		Level:      cfg.Log.Level,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting",
		zap.String("version", config.AppVersion),
		zap.Bool("demo", cfg.Demo),
		zap.String("adapter", cfg.Adapter),
	)

	var driver bluetooth.Driver
	if cfg.Demo {
		driver = bluetooth.NewMockDriver()
	} else {
		driver = bluetooth.NewRadio()
	}
	if err := driver.Enable(); err != nil {
		log.Error("adapter unavailable", zap.Error(err))
		fmt.Fprintf(os.Stderr, "\nError: %v\n\n", err)
		fmt.Fprintln(os.Stderr, "Bluetooth scanning requires elevated permissions.")
		fmt.Fprintln(os.Stderr, "Try one of:")
		fmt.Fprintln(os.Stderr, "  sudo ./rover-radar")
		fmt.Fprintln(os.Stderr, "  sudo setcap cap_net_admin,cap_net_raw+ep ./rover-radar")
		fmt.Fprintln(os.Stderr, "  ./rover-radar --demo    (demo mode, no hardware needed)")
		return err
	}

	var gate session.Gate
	if !cfg.Demo {
		gate = permission.NewGate(permission.CurrentPlatform(), permission.NewSystemRequester(), log)
	}

	controller := session.NewController(driver, bluetooth.NewRegistry(), session.Options{
		ScanDuration:    cfg.Scan.Duration,
		SettleDelay:     cfg.Connect.SettleDelay,
		AllowDuplicates: cfg.Scan.AllowDuplicates,
		Gate:            gate,
		Logger:          log,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model := app.New(app.Options{
		Context:    ctx,
		Driver:     driver,
		Controller: controller,
		Mapper:     radar.NewMapper(log),
		Speed:      cfg.Control.Speed,
		Adapter:    cfg.Adapter,
		Demo:       cfg.Demo,
		Logger:     log,
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithFPS(config.TargetFPS),
	)

	stop := model.Start(p)
	defer stop()

	_, err = p.Run()
	if err != nil {
		log.Error("program exited", zap.Error(err))
	}
	return err
}
