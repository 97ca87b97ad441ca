package main

import (
	"context"
	"os"

	"github.com/arnavshah/capacity-planner-go/pkg/app"
	"github.com/arnavshah/capacity-planner-go/pkg/config"
	"github.com/charmbracelet/log"
)

func main() {
	// Load .env if it exists
	envFile := config.LoadDotEnv()

	cfg, err := config.Load(os.Getenv("PLANNER_CONFIG"))
	if err != nil {
		log.Fatal("could not load config", "err", err)
	}

	r, logger, err := app.Build(context.Background(), cfg, os.Stderr)
	if err != nil {
		log.Fatal("could not start", "err", err)
	}
	if envFile != "" {
		logger.Debug("loaded env file", "path", envFile)
	}

	logger.Info("Server starting", "port", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("could not run server", "err", err)
	}
}
