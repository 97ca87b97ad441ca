package handlers

import (
	"net/http"
	"time"

	"github.com/arnavshah/capacity-planner-go/pkg/capacity"
	"github.com/arnavshah/capacity-planner-go/pkg/models"
	"github.com/gin-gonic/gin"
)

func suggest(resources []models.Resource, items []models.WorkItem, start, end time.Time) models.SuggestResponse {
	reports := capacity.Aggregate(resources, start, end)
	s := capacity.Suggest(reports, items, start, end)
	return models.SuggestResponse{
		Window:       capacity.NewWindow(start, end),
		Suggestion:   s,
		BalanceScore: capacity.BalanceScore(capacity.Apply(reports, s)),
	}
}

// GetSuggestions proposes owners for the stored unassigned tickets
func (h *Handler) GetSuggestions(c *gin.Context) {
	end := c.Query("end")
	start, stop, err := h.resolveWindow(nil, &end)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	resources, err := h.Store.ListResources(ctx, c.Query("team"))
	if err != nil {
		h.fail(c, "Could not load resources", err)
		return
	}
	items, err := h.Store.UnassignedItems(ctx)
	if err != nil {
		h.fail(c, "Could not load tickets", err)
		return
	}

	c.JSON(http.StatusOK, suggest(resources, items, start, stop))
}

// ComputeSuggestions handles the JSON-based stateless suggestion request
func (h *Handler) ComputeSuggestions(c *gin.Context) {
	var input models.SuggestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, end, err := h.resolveWindow(input.From, input.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := suggest(input.Resources, input.Items, start, end)
	h.RecordUsage(c, len(input.Resources), 0)
	c.JSON(http.StatusOK, resp)
}
