package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eddielth/fire-alarm/config"
	"github.com/eddielth/fire-alarm/dashboard"
	"github.com/eddielth/fire-alarm/logger"
	"github.com/eddielth/fire-alarm/mqtt"
	"github.com/eddielth/fire-alarm/storage"
)

// dashboardCmd renders sensor values and alerts in the terminal.
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show live sensor values and recent alerts",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		return runDashboard(ctx)
	},
}

const dashboardLogFile = "logs/dashboard.log"

// dashboardLogConfig keeps log lines off the terminal the dashboard redraws
func dashboardLogConfig(l config.LoggerConfig) config.LoggerConfig {
	l.Console = false
	if l.FilePath == "" {
		l.FilePath = dashboardLogFile
	}
	return l
}

func runDashboard(ctx context.Context) error {
	_, cfg, err := setup(dashboardLogConfig)
	if err != nil {
		return err
	}
	defer logger.Close()

	store, err := storage.NewManagerFromConfig(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize alert storage: %w", err)
	}
	defer store.Close()
	logger.Info("archiving alerts to %d storage backend(s)", store.Len())

	d := dashboard.New(cfg.MQTT.TopicPrefix, cfg.Dashboard.HistorySize, store)
	history, err := store.Recent(cfg.Dashboard.HistorySize)
	if err != nil {
		logger.Warn("starting with empty alert history: %v", err)
	}
	d.Seed(history)

	client, err := mqtt.NewClient(cfg.MQTT, "fire-alarm-dashboard")
	if err != nil {
		return err
	}
	if err := client.Connect(); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	defer client.Disconnect()

	return d.Run(ctx, client, cfg.Dashboard.RefreshInterval)
}
