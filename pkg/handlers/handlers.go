package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/arnavshah/capacity-planner-go/pkg/auth"
	"github.com/arnavshah/capacity-planner-go/pkg/database"
	"github.com/arnavshah/capacity-planner-go/pkg/logging"
	"github.com/arnavshah/capacity-planner-go/pkg/models"
	"github.com/arnavshah/capacity-planner-go/pkg/store"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// Version is reported by the service banner
const Version = "1.0.0"

// Handler contains dependencies for the route handlers
type Handler struct {
	Store  *store.Store
	Auth   *auth.Authenticator
	Logger *log.Logger

	// WindowDays is the default capacity horizon
	WindowDays int
	// Now is the planning clock; defaults to time.Now
	Now func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// Router builds the gin engine with every route registered
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(logging.Middleware(h.Logger), gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Capacity Planner API",
			"version": Version,
		})
	})
	r.POST("/auth/login", h.Login)

	api := r.Group("/api")
	api.Use(h.AuthMiddleware())
	{
		api.GET("/capacity", h.RequirePlanner(), h.GetCapacity)
		api.GET("/capacity.csv", h.RequirePlanner(), h.GetCapacityCSV)
		api.GET("/suggestions", h.RequirePlanner(), h.GetSuggestions)

		api.GET("/teams", h.ListTeams)
		api.POST("/teams", h.RequirePlanner(), h.CreateTeam)
		api.GET("/users", h.ListUsers)
		api.POST("/users", h.RequirePlanner(), h.CreateUser)
		api.GET("/tickets", h.ListTickets)
		api.POST("/tickets", h.RequirePlanner(), h.CreateTicket)
		api.GET("/milestones", h.ListMilestones)
		api.POST("/milestones", h.RequirePlanner(), h.CreateMilestone)
		api.PUT("/milestones/:id", h.RequirePlanner(), h.UpdateMilestone)

		keys := api.Group("/keys", h.RequireRole(database.RoleAdmin))
		keys.POST("", h.GenerateKey)
		keys.GET("", h.ListKeys)
		keys.DELETE("/:id", h.RevokeKey)
		keys.PATCH("/:id", h.UpdateKeyLimit)
		keys.GET("/:id/usage", h.GetUsage)
	}

	engine := r.Group("/engine")
	engine.Use(h.APIKeyMiddleware())
	{
		engine.POST("/capacity", h.ComputeCapacity)
		engine.POST("/cascade", h.ComputeCascade)
		engine.POST("/suggest", h.ComputeSuggestions)
		engine.POST("/validate", h.ValidateInput)
		engine.GET("/usage", h.GetMyUsage)
	}

	return r
}

func bearer(c *gin.Context) string {
	token := c.GetHeader("Authorization")
	// Strip "Bearer " if present
	if len(token) > 7 && token[:7] == "Bearer " {
		token = token[7:]
	}
	return token
}

// AuthMiddleware verifies the JWT token for user routes
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := h.Auth.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RequireRole only lets the listed roles through
func (h *Handler) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role"})
	}
}

// RequirePlanner lets managers and admins through
func (h *Handler) RequirePlanner() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.CanPlan(c.GetString("role")) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role"})
			return
		}
		c.Next()
	}
}

// APIKeyMiddleware verifies the HMAC API key for engine routes
func (h *Handler) APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearer(c)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API Key required"})
			return
		}

		name, err := auth.VerifyHMACKey(h.Auth.MasterSecret, key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API Key signature"})
			return
		}

		// Fetch or create API key record to track usage
		apiKey, err := h.Store.TouchAPIKey(c.Request.Context(), key, name)
		if errors.Is(err, store.ErrRevoked) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API Key revoked"})
			return
		}
		if err != nil {
			h.Logger.Error("api key lookup failed", "name", name, "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not load API key"})
			return
		}

		used, err := h.Store.RequestsToday(c.Request.Context(), apiKey.ID)
		if err != nil {
			h.Logger.Warn("usage lookup failed", "name", name, "err", err)
		} else if apiKey.RateLimit > 0 && used >= apiKey.RateLimit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Daily rate limit exceeded"})
			return
		}

		c.Set("apiKey", apiKey)
		c.Set("keyName", name)
		c.Next()
	}
}

// RecordUsage records API usage for the calling key, if any
func (h *Handler) RecordUsage(c *gin.Context, resources, shifted int) {
	apiKeyRaw, exists := c.Get("apiKey")
	if !exists {
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)

	if err := h.Store.RecordUsage(c.Request.Context(), apiKey.ID, resources, shifted); err != nil {
		h.Logger.Warn("usage not recorded", "key", apiKey.Name, "err", err)
	}
}

// Login exchanges a username and password for a token
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Store.UserByUsername(c.Request.Context(), req.Username)
	if err != nil || !user.Active {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.Auth.CreateToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

// fail writes the status that matches err
func (h *Handler) fail(c *gin.Context, msg string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	h.Logger.Error(msg, "path", c.Request.URL.Path, "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// parseDate accepts a calendar date or a full RFC3339 timestamp
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(models.DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
