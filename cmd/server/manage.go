package main

import (
	"fmt"

	"github.com/doroshenkokb/mini-social-network/internal/cache"
	"github.com/doroshenkokb/mini-social-network/internal/database"
	"github.com/spf13/cobra"
)

var (
	flagUsername string
	flagPassword string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Connect migrates on open.
		if _, err := openDatabase(); err != nil {
			return err
		}
		fmt.Println("Database schema is up to date.")
		return nil
	},
}

var createSuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Add an administrator account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		user, err := database.CreateSuperuser(db, flagUsername, flagPassword)
		if err != nil {
			return fmt.Errorf("creating superuser: %w", err)
		}
		fmt.Printf("Superuser %s created (id %d).\n", user.Username, user.ID)
		return nil
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the page cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached page",
	Long: `Drop every cached page from the shared Redis cache.

The in-memory backend lives inside the running server; clear it with
POST /admin/cache/clear instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Cache.Backend != cache.BackendRedis {
			return fmt.Errorf("cache backend %q is local to the server process; use POST /admin/cache/clear", cfg.Cache.Backend)
		}

		client, err := cache.DialRedis(cmd.Context(), cfg.Redis)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		pageCache := cache.New(cache.NewRedisStore(client, cfg.Redis.KeyPrefix), cfg.Cache.TTL, cache.BackendRedis)
		defer pageCache.Close()

		if err := pageCache.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Page cache cleared.")
		return nil
	},
}

func init() {
	createSuperuserCmd.Flags().StringVar(&flagUsername, "username", "", "Administrator username")
	createSuperuserCmd.Flags().StringVar(&flagPassword, "password", "", "Administrator password")
	_ = createSuperuserCmd.MarkFlagRequired("username")
	_ = createSuperuserCmd.MarkFlagRequired("password")

	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(migrateCmd, createSuperuserCmd, cacheCmd)
}
