package main

import (
	"fmt"
	"os"

	"github.com/doroshenkokb/mini-social-network/internal/config"
	"github.com/doroshenkokb/mini-social-network/internal/database"
	"github.com/doroshenkokb/mini-social-network/pkg/logger"
	"github.com/doroshenkokb/mini-social-network/pkg/utils"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	flagConfigFile string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "yatube",
	Short: "Yatube, a small blogging site",
	Long: `Yatube serves a blogging site where authors publish posts, join
groups, comment and follow each other.

  yatube serve                 Start the web server (default)
  yatube migrate               Create or update the database schema
  yatube createsuperuser       Add an administrator account
  yatube cache clear           Drop every cached page`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flagConfigFile != "" {
			if err := os.Setenv("CONFIG_FILE", flagConfigFile); err != nil {
				return err
			}
		}
		cfg = config.Load()

		if cfg.Log.File != "" {
			logger.InitWithFile(logger.FileOptions{
				Path:       cfg.Log.File,
				MaxSizeMB:  cfg.Log.MaxSizeMB,
				MaxBackups: cfg.Log.MaxBackups,
				MaxAgeDays: cfg.Log.MaxAgeDays,
			})
		}
		utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)
		return nil
	},
	RunE: runServe,
}

func init() {
	logger.Init()
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, "config", "", "Config file (yaml, toml or json); environment variables take precedence")
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func openDatabase() (*gorm.DB, error) {
	db, err := database.Connect(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return db, nil
}
