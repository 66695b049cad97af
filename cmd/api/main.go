// Package main provides the entry point for the HealthyLife API server
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/healthylife/server/internal/infrastructure/config"
	"github.com/healthylife/server/internal/infrastructure/container"
	"github.com/healthylife/server/internal/infrastructure/persistence/database"
	"github.com/healthylife/server/internal/infrastructure/persistence/migrations"
	"github.com/healthylife/server/pkg/logger"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	serve := newServeCmd(&configPath)
	root := &cobra.Command{
		Use:           "healthylife",
		Short:         "HealthyLife diet tracking API",
		RunE:          serve.RunE,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	root.AddCommand(serve)
	root.AddCommand(newMigrateCmd(&configPath))
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			app := fx.New(
				fx.Supply(cfg),
				container.Module,
				fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
					l := &fxevent.ZapLogger{Logger: log.Named("fx")}
					l.UseLogLevel(zap.DebugLevel)
					return l
				}),
			)
			if err := app.Err(); err != nil {
				return fmt.Errorf("failed to build application: %w", err)
			}

			// Run blocks until SIGINT/SIGTERM, then stops the app
			app.Run()
			return nil
		},
	}
}

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			log, err := logger.New(logger.Config{
				Level:       cfg.App.LogLevel,
				Format:      cfg.App.LogFormat,
				Development: cfg.App.Debug,
			})
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := database.Open(cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close(db) }()

			m := migrations.New(db, log)
			if err := m.Up(); err != nil {
				return err
			}
			for table, ok := range m.Status() {
				log.Info("Table status", zap.String("table", table), zap.Bool("exists", ok))
			}
			return nil
		},
	}
}
