package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eddielth/fire-alarm/config"
	"github.com/eddielth/fire-alarm/logger"
	"github.com/eddielth/fire-alarm/mqtt"
	"github.com/eddielth/fire-alarm/sensor"
	"github.com/eddielth/fire-alarm/transformer"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// rootCmd runs the fusion engine.
	rootCmd = &cobra.Command{
		Use:          "fire-alarm",
		Short:        "Fuse forest sensor readings and escalate fire alerts over MQTT",
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return runEngine(ctx)
		},
	}
)

// Execute runs the CLI and exits with non-zero status on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "path to configuration file")
	rootCmd.AddCommand(dashboardCmd, simulateCmd)
}

// setup loads the config and points the global logger at it
// setup loads the config and initializes the package logger. A non-nil tune
// rewrites the logger settings before they take effect.
func setup(tune func(config.LoggerConfig) config.LoggerConfig) (*config.Loader, *config.Config, error) {
	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, err
	}

	l := cfg.Logger
	if tune != nil {
		l = tune(l)
	}
	if err := logger.InitFromConfig(l.Level, l.FilePath, l.MaxSize, l.MaxBackups, l.Console); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return loader, cfg, nil
}

func runEngine(ctx context.Context) error {
	loader, cfg, err := setup(nil)
	if err != nil {
		return err
	}
	defer logger.Close()

	transformers, err := transformer.NewManager(cfg.Transformers)
	if err != nil {
		return fmt.Errorf("failed to initialize transformer manager: %w", err)
	}

	for _, kind := range sensor.Kinds {
		if transformers.Has(kind) {
			logger.Info("payload transformer active for %s sensors", kind)
		}
	}

	manager, err := mqtt.NewManager(cfg, transformers)
	if err != nil {
		return err
	}

	err = loader.WatchConfig(func(newCfg *config.Config) error {
		if err := logger.SetLevel(newCfg.Logger.Level); err != nil {
			logger.Warn("keeping current log level: %v", err)
		}

		for kind, transformerCfg := range newCfg.Transformers {
			if err := transformers.ReloadTransformer(kind, transformerCfg); err != nil {
				logger.Error("failed to reload transformer %s: %v", kind, err)
			}
		}

		logger.Info("MQTT and engine settings take effect after restart")
		return nil
	})
	if err != nil {
		logger.Warn("config file watch disabled: %v", err)
	} else {
		logger.Info("watching config file %s", configPath)
	}

	logger.Info("fire alarm engine started, waiting for sensor data...")
	if err := manager.Run(ctx); err != nil {
		return err
	}

	logger.Info("fire alarm engine stopped")
	return nil
}
