package app

import (
	"context"
	"fmt"
	"io"

	"github.com/arnavshah/capacity-planner-go/pkg/auth"
	"github.com/arnavshah/capacity-planner-go/pkg/config"
	"github.com/arnavshah/capacity-planner-go/pkg/database"
	"github.com/arnavshah/capacity-planner-go/pkg/handlers"
	"github.com/arnavshah/capacity-planner-go/pkg/logging"
	"github.com/arnavshah/capacity-planner-go/pkg/store"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// Build wires logging, the database, the first admin and every route from cfg
func Build(ctx context.Context, cfg config.Config, logOut io.Writer) (*gin.Engine, *log.Logger, error) {
	logger, err := logging.New(logOut, cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.InitDB(database.Options{
		DatabaseURL: cfg.Database.URL,
		DataPath:    cfg.Database.Path,
		Quiet:       logger.GetLevel() > log.DebugLevel,
	})
	if err != nil {
		return nil, nil, err
	}

	if cfg.Auth.JWTSecret == "" {
		logger.Warn("JWT_SECRET is not set; user tokens are signed with an empty key")
	}
	if cfg.Auth.MasterSecret == "" {
		logger.Warn("API_MASTER_SECRET is not set; engine keys are signed with an empty key")
	}

	a := auth.New(cfg.Auth.JWTSecret, cfg.Auth.MasterSecret)
	s := store.New(db)

	created, err := a.EnsureAdminExists(ctx, s, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword)
	if err != nil {
		return nil, nil, fmt.Errorf("creating admin user: %w", err)
	}
	if created {
		logger.Info("created admin user", "username", cfg.Auth.AdminUsername)
	}

	h := &handlers.Handler{
		Store:      s,
		Auth:       a,
		Logger:     logger,
		WindowDays: cfg.Planning.WindowDays,
	}
	return h.Router(), logger, nil
}
