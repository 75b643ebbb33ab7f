// Package main is the shoplive API server binary.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/venkat-sld/shoplive/internal/store"
	"github.com/venkat-sld/shoplive/pkg/config"
	"github.com/venkat-sld/shoplive/pkg/database"
	"github.com/venkat-sld/shoplive/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	Version     = "1.0.0"
	serviceName = "shoplive"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Live-sales merchant platform API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Env file to load before reading the environment (default .env)")

	cmd.AddCommand(serveCmd(&envFile))
	cmd.AddCommand(migrateCmd(&envFile))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", serviceName, Version)
		},
	})

	return cmd
}

// bootstrap loads configuration, initializes the logger and connects to the database
func bootstrap(envFile string) (*config.Config, *zap.Logger, *gorm.DB, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}

	cfg, err := config.Load(serviceName, files...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	}); err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	log := logger.GetLogger()
	log.Info("Configuration loaded", cfg.LogConfig()...)
	if cfg.JWT.SigningKey == config.DefaultSigningKey {
		log.Warn("JWT_SIGNING_KEY not set, using the default key (NOT SECURE FOR PRODUCTION)")
	}

	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect database: %w", err)
	}
	log.Info("Database connection established")

	return cfg, log, db, nil
}

func migrateCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, db, err := bootstrap(*envFile)
			if err != nil {
				return err
			}
			defer log.Sync()
			defer database.Close(db)

			if err := store.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info("Database schema is up to date")
			return nil
		},
	}
}
