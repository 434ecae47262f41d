package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/UParthsarathi/Tristack-S/internal/cache"
	"github.com/UParthsarathi/Tristack-S/internal/config"
	"github.com/UParthsarathi/Tristack-S/internal/database"
	"github.com/UParthsarathi/Tristack-S/internal/server"
)

func main() {
	cfg := config.Load()
	logrus.SetLevel(cfg.TurnLogLevel)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Connect(ctx, cfg.DatabaseURL); err != nil {
		logrus.WithError(err).Fatal("database connection failed")
	}
	defer database.Close()

	if err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword); err != nil {
		// Rooms still work without Redis; only live fan-out and the
		// action log are lost.
		logrus.WithError(err).Warn("redis unavailable, running without pub/sub")
	}

	if err := server.New(cfg).Run(ctx); err != nil {
		logrus.WithError(err).Fatal("server exited")
	}
	logrus.Info("shutdown complete")
}
