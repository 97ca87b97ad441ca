package handlers

import (
	"net/http"

	"github.com/arnavshah/capacity-planner-go/pkg/database"
	"github.com/gin-gonic/gin"
)

// GetMyUsage returns usage stats for the authenticated API key
func (h *Handler) GetMyUsage(c *gin.Context) {
	apiKeyRaw, exists := c.Get("apiKey")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "API Key context missing"})
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)

	usage, err := h.Store.Usage(c.Request.Context(), apiKey.ID)
	if err != nil {
		h.fail(c, "Could not fetch usage details", err)
		return
	}

	var totalRequests, totalResources, totalShifted int64
	for _, u := range usage {
		totalRequests += int64(u.RequestCount)
		totalResources += int64(u.TotalResources)
		totalShifted += int64(u.TotalShifted)
	}

	c.JSON(http.StatusOK, gin.H{
		"key_name":      apiKey.Name,
		"rate_limit":    apiKey.RateLimit,
		"usage_history": usage,
		"totals": gin.H{
			"requests":  totalRequests,
			"resources": totalResources,
			"shifted":   totalShifted,
		},
	})
}
