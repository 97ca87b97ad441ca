package handlers

import (
	"net/http"

	"github.com/arnavshah/capacity-planner-go/pkg/cascade"
	"github.com/arnavshah/capacity-planner-go/pkg/models"
	"github.com/gin-gonic/gin"
)

// UpdateMilestone moves a stored milestone's due date, optionally shifting
// everything that depends on it by the same number of days.
func (h *Handler) UpdateMilestone(c *gin.Context) {
	var req struct {
		DueDate string `json:"due_date" binding:"required"`
		Cascade bool   `json:"cascade"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	due, err := parseDate(req.DueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due_date"})
		return
	}

	id := c.Param("id")
	upd, err := h.Store.UpdateMilestoneDueDate(c.Request.Context(), id, due, req.Cascade)
	if err != nil {
		h.fail(c, "Could not update milestone", err)
		return
	}

	if len(upd.Shifts) > 0 {
		h.Logger.Info("cascaded due date", "root", id, "delta", upd.DaysDelta, "shifted", len(upd.Shifts), "by", c.GetString("username"))
	}
	c.JSON(http.StatusOK, upd)
}

// ComputeCascade previews a cascade over a caller-supplied set of items
func (h *Handler) ComputeCascade(c *gin.Context) {
	var input models.CascadeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var delta int
	switch {
	case input.DaysDelta != nil:
		delta = *input.DaysDelta
	case input.NewDueDate != nil:
		newDue, err := parseDate(*input.NewDueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid new_due_date"})
			return
		}
		root, ok := findItem(input.Items, input.RootID)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "root_id not found in items"})
			return
		}
		delta = cascade.Delta(root.DueDate, newDue)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "days_delta or new_due_date is required"})
		return
	}

	shifts, err := cascade.Propagate(c.Request.Context(), input.RootID, delta, cascade.NewMemoryGraph(input.Items))
	if err != nil {
		h.fail(c, "Could not compute cascade", err)
		return
	}
	if shifts == nil {
		shifts = []models.DateShift{}
	}

	h.RecordUsage(c, 0, len(shifts))

	c.JSON(http.StatusOK, models.CascadeResponse{
		RootID:    input.RootID,
		DaysDelta: delta,
		Shifts:    shifts,
	})
}

func findItem(items []models.ScheduledItem, id string) (models.ScheduledItem, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return models.ScheduledItem{}, false
}
