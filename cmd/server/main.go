package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"investment-ledger/internal/config"
	"investment-ledger/internal/logger"
	"investment-ledger/internal/server"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	srv, err := server.NewServer(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize server", zap.Error(err))
	}

	port, err := srv.Start(cfg.ServerPort)
	if err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
	log.Info("Server started successfully",
		zap.String("port", port),
		zap.String("store", cfg.StoreDriver))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Server stopped")
}
