package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eddielth/fire-alarm/logger"
	"github.com/eddielth/fire-alarm/mqtt"
	"github.com/eddielth/fire-alarm/simulator"
)

// simulateCmd publishes synthetic readings for every sensor kind.
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Publish simulated heat, smoke, fire and wind readings",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		return runSimulator(ctx)
	},
}

func runSimulator(ctx context.Context) error {
	_, cfg, err := setup(nil)
	if err != nil {
		return err
	}
	defer logger.Close()

	client, err := mqtt.NewClient(cfg.MQTT, "fire-alarm-simulator")
	if err != nil {
		return err
	}

	sim, err := simulator.New(client, client.Prefix(), cfg.Simulator)
	if err != nil {
		return err
	}

	if err := client.Connect(); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	defer client.Disconnect()

	logger.Info("simulating sensors at %s", cfg.Simulator.Location)
	return sim.Run(ctx)
}
