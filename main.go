package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	local, err := openSQLiteKeyValueStore(cfg.LocalStorePath)
	if err != nil {
		logger.Fatal("open local store", zap.String("path", cfg.LocalStorePath), zap.Error(err))
	}
	defer local.Close()

	// The primary connects in the background; requests served before it is
	// ready use the local store.
	store := NewStoreAdapter(local, logger)
	attachPrimaryAsync(context.Background(), store, cfg.DBURL, logger)
	if cfg.DBURL != "" {
		store.AwaitReady(cfg.PrimaryReadyTimeout)
	}

	h := NewHandler(store, []byte(cfg.JWTSecret), logger)

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	router.SetTrustedProxies(nil)
	h.registerRoutes(router)

	addr := ":" + cfg.Port
	logger.Info("starting calorie tracker api", zap.String("addr", addr), zap.Bool("primary_ready", store.Ready()))
	if err := router.Run(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
