package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"partybot/internal/config"
	"partybot/internal/logging"

	"go.uber.org/zap"
)

func main() {
	// An empty path searches ./config, . and /etc/partybot for bot.yaml
	cfg, err := config.LoadConfig(os.Getenv("PARTYBOT_CONFIG"))
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	logger, err := logging.New(cfg.Server.LogLevel, cfg.Server.LogFormat)
	if err != nil {
		log.Fatal("Failed to create logger: ", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to set up bot", zap.Error(err))
	}

	if err := a.run(ctx); err != nil {
		logger.Error("bot stopped with an error", zap.Error(err))
		os.Exit(1)
	}
}
