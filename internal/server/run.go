package server

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"stock-backend/internal/cache"
	"stock-backend/internal/config"
	"stock-backend/internal/database"
	"stock-backend/internal/logger"
)

const shutdownTimeout = 10 * time.Second

// OpenCache returns Redis when REDIS_ADDR is set and reachable, the
// in-memory cache otherwise.
func OpenCache(ctx context.Context, cfg *config.Config, log *logger.Logger) cache.Cache {
	if cfg.RedisAddr == "" {
		return cache.NewMemory()
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	r, err := cache.NewRedis(pingCtx, cfg.RedisAddr, cfg.RedisPassword, "stock:")
	if err != nil {
		log.Warnw("redis unavailable, using in-memory cache", "addr", cfg.RedisAddr, "error", err)
		return cache.NewMemory()
	}
	log.Infow("redis cache ready", "addr", cfg.RedisAddr)
	return r
}

// Run opens the database, serves HTTP on cfg.HTTPPort and shuts down
// gracefully on SIGINT or SIGTERM.
func Run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	db, err := database.Init(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := OpenCache(ctx, cfg, log)
	if r, ok := c.(*cache.Redis); ok {
		defer r.Close()
	}

	app := New(Deps{Config: cfg, DB: db, Cache: c, Logger: log})

	errCh := make(chan error, 1)
	go func() {
		log.Infow("http server listening", "port", cfg.HTTPPort)
		errCh <- app.Listen(":" + cfg.HTTPPort)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Infow("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
