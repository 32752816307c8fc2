package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/doroshenkokb/mini-social-network/internal/cache"
	"github.com/doroshenkokb/mini-social-network/internal/database"
	"github.com/doroshenkokb/mini-social-network/internal/handlers"
	"github.com/doroshenkokb/mini-social-network/internal/storage"
	"github.com/doroshenkokb/mini-social-network/pkg/logger"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	if err := database.SeedAdmin(db, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		return fmt.Errorf("seeding admin failed: %w", err)
	}

	images, err := openImageStore(cmd.Context())
	if err != nil {
		return err
	}

	pageCache := cache.FromConfig(cmd.Context(), cfg.Cache, cfg.Redis)
	defer pageCache.Close()

	app := handlers.NewApp(handlers.Deps{
		DB:            db,
		Images:        images,
		Cache:         pageCache,
		SecureCookie:  cfg.Server.SecureCookie,
		PerPage:       cfg.Posts.PerPage,
		MaxImageBytes: cfg.Posts.MaxImageBytes,
		BodyLimitMB:   cfg.Server.BodyLimitMB,
	})

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":          cfg.Server.Port,
		"address":       listenAddr,
		"db_driver":     cfg.DB.Driver,
		"cache_backend": pageCache.Backend(),
		"cache_ttl":     pageCache.TTL().String(),
		"images":        images != nil,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}
	return nil
}

// openImageStore returns nil when MinIO is disabled; posts then cannot carry
// images.
func openImageStore(ctx context.Context) (storage.ImageStore, error) {
	if !cfg.MinIO.Enabled {
		logger.Warn("image_storage_disabled", map[string]interface{}{
			"reason": "MINIO_ENABLED is false",
		})
		return nil, nil
	}

	client, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		return nil, fmt.Errorf("minio initialization failed: %w", err)
	}
	if err := client.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed ensuring minio bucket: %w", err)
	}
	return client, nil
}
