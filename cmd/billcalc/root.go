package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mmynk/billcalc/internal/config"
	"github.com/mmynk/billcalc/internal/storage"
	"github.com/mmynk/billcalc/internal/storage/postgres"
	"github.com/mmynk/billcalc/internal/storage/sqlite"
	"github.com/mmynk/billcalc/pkg/logging"
)

var (
	flagConfig   string
	flagLogLevel string

	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "billcalc",
	Short:         "Wedding bill calculator service",
	Long:          "Price per-person items, service fees, flat fees and tax for wedding vendor bills.",
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if flagLogLevel != "" {
			cfg.Log.Level = flagLogLevel
		}
		logger = logging.Setup(cfg.Log.Level, cfg.Log.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Config file (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Override log level: debug, info, warn, error")
}

// openStore opens the store selected by the config.
func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		store, err := postgres.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		return store, nil
	default:
		store, err := sqlite.New(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite: %w", err)
		}
		return store, nil
	}
}
