package handlers

import (
	"fmt"
	"net/http"

	"github.com/arnavshah/capacity-planner-go/pkg/models"
	"github.com/gin-gonic/gin"
)

// ValidateInput checks a capacity request without computing it
func (h *Handler) ValidateInput(c *gin.Context) {
	var input models.CapacityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	if len(input.Resources) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": "At least one resource is required",
		})
		return
	}

	if _, _, err := h.resolveWindow(input.From, input.To); err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}

	var items, undated int
	resIDs := make(map[string]bool)
	for _, r := range input.Resources {
		if msg := checkResource(r, resIDs); msg != "" {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": msg})
			return
		}
		resIDs[r.ID] = true

		for _, it := range r.OpenItems {
			items++
			if it.DueDate == nil || it.EstimatedHours == nil {
				undated++
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"resource_count": len(input.Resources),
			"item_count":     items,
			// items without a due date or estimate add no load
			"ignored_items": undated,
		},
	})
}

func checkResource(r models.Resource, seen map[string]bool) string {
	switch {
	case r.ID == "":
		return "Resource ID is required"
	case seen[r.ID]:
		return "Duplicate resource ID: " + r.ID
	case r.WeeklyHours < 0:
		return fmt.Sprintf("Resource %s: weekly hours must be >= 0", r.ID)
	case r.WorkloadPercent < 0 || r.WorkloadPercent > 100:
		return fmt.Sprintf("Resource %s: workload percent must be between 0 and 100", r.ID)
	}
	return ""
}
