package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/arnavshah/capacity-planner-go/internal/workdays"
	"github.com/arnavshah/capacity-planner-go/pkg/capacity"
	"github.com/arnavshah/capacity-planner-go/pkg/models"
	"github.com/gin-gonic/gin"
)

// resolveWindow returns [from, to) where from defaults to today and to
// defaults to from plus the configured horizon.
func (h *Handler) resolveWindow(from, to *string) (time.Time, time.Time, error) {
	start := workdays.Day(h.now())
	if from != nil && *from != "" {
		t, err := parseDate(*from)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from date %q", *from)
		}
		start = workdays.Day(t)
	}

	end := start.AddDate(0, 0, h.WindowDays)
	if to != nil && *to != "" {
		t, err := parseDate(*to)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q", *to)
		}
		end = workdays.Day(t)
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s is before %s", end.Format(models.DateLayout), start.Format(models.DateLayout))
	}
	return start, end, nil
}

func (h *Handler) storedCapacity(c *gin.Context) (models.CapacityResponse, bool) {
	end := c.Query("end")
	start, stop, err := h.resolveWindow(nil, &end)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.CapacityResponse{}, false
	}

	resources, err := h.Store.ListResources(c.Request.Context(), c.Query("team"))
	if err != nil {
		h.fail(c, "Could not load resources", err)
		return models.CapacityResponse{}, false
	}

	return capacity.Report(resources, start, stop), true
}

// GetCapacity reports capacity for the stored team members
func (h *Handler) GetCapacity(c *gin.Context) {
	resp, ok := h.storedCapacity(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetCapacityCSV reports capacity for the stored team members as CSV
func (h *Handler) GetCapacityCSV(c *gin.Context) {
	resp, ok := h.storedCapacity(c)
	if !ok {
		return
	}

	var out strings.Builder
	if err := capacity.WriteCSV(&out, resp.Resources); err != nil {
		h.fail(c, "Could not write CSV", err)
		return
	}

	filename := fmt.Sprintf("capacity_%s_%s.csv", resp.Window.From, resp.Window.To)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(out.String()))
}

// ComputeCapacity handles the JSON-based stateless capacity request
func (h *Handler) ComputeCapacity(c *gin.Context) {
	var input models.CapacityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, end, err := h.resolveWindow(input.From, input.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := capacity.Report(input.Resources, start, end)

	// Record usage
	h.RecordUsage(c, len(input.Resources), 0)

	c.JSON(http.StatusOK, resp)
}
