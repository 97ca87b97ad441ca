package handler

import (
	"context"
	"net/http"
	"os"

	"github.com/arnavshah/capacity-planner-go/pkg/app"
	"github.com/arnavshah/capacity-planner-go/pkg/config"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

var r *gin.Engine

func init() {
	// Load .env if it exists (for local testing with vercel dev)
	config.LoadDotEnv()

	cfg, err := config.Load(os.Getenv("PLANNER_CONFIG"))
	if err == nil {
		r, _, err = app.Build(context.Background(), cfg, os.Stderr)
	}
	if err != nil {
		log.Error("planner unavailable", "err", err)
		r = gin.New()
		r.NoRoute(func(c *gin.Context) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service not configured"})
		})
	}
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
