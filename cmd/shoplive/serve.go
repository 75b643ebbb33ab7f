package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/venkat-sld/shoplive/internal/cache"
	"github.com/venkat-sld/shoplive/internal/media"
	"github.com/venkat-sld/shoplive/internal/router"
	"github.com/venkat-sld/shoplive/internal/store"
	"github.com/venkat-sld/shoplive/pkg/config"
	"github.com/venkat-sld/shoplive/pkg/database"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(envFile *string) *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), *envFile, skipMigrate)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not migrate the schema on startup")
	return cmd
}

func serve(parent context.Context, envFile string, skipMigrate bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, db, err := bootstrap(envFile)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer database.Close(db)

	if !skipMigrate {
		if err := store.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("Database schema is up to date")
	}

	images, err := media.NewLocalStore(cfg.Upload.Dir, cfg.Upload.MaxBytes)
	if err != nil {
		return err
	}

	productCache, closeCache := openProductCache(ctx, cfg.Redis, log)
	defer closeCache()

	e, err := router.New(router.Deps{
		Config: cfg,
		DB:     db,
		Images: images,
		Cache:  productCache,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Server stopped")
	return nil
}

// openProductCache connects to redis when configured. An unreachable redis
// disables caching instead of failing startup.
func openProductCache(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (cache.ProductCache, func()) {
	if !cfg.Enabled() {
		log.Info("Product cache disabled")
		return cache.NopProductCache{}, func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unreachable, product cache disabled", zap.String("addr", cfg.Addr), zap.Error(err))
		client.Close()
		return cache.NopProductCache{}, func() {}
	}

	log.Info("Product cache enabled", zap.String("addr", cfg.Addr), zap.Duration("ttl", cfg.TTL))
	return cache.NewRedisProductCache(client, cfg.TTL), func() { client.Close() }
}
