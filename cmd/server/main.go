package main

import (
	"context"
	"fmt"
	"os"

	"stock-backend/internal/config"
	"stock-backend/internal/logger"
	"stock-backend/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Development: cfg.LogDevelopment})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetDefault(log)

	if err := server.Run(context.Background(), cfg, log); err != nil {
		log.Errorw("server stopped", "error", err)
		os.Exit(1)
	}
}
