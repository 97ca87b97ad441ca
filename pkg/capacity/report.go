package capacity

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/arnavshah/capacity-planner-go/pkg/models"
)

// NewWindow describes [start, end) for a response
func NewWindow(start, end time.Time) models.Window {
	return models.Window{
		From:     start.Format(models.DateLayout),
		To:       end.Format(models.DateLayout),
		WorkDays: WindowWorkDays(start, end),
	}
}

// Report aggregates resources over [start, end) and wraps the result with
// the resolved window and a team summary.
func Report(resources []models.Resource, start, end time.Time) models.CapacityResponse {
	reports := Aggregate(resources, start, end)
	return models.CapacityResponse{
		Window:    NewWindow(start, end),
		Resources: reports,
		Summary:   Summarize(reports),
	}
}

// WriteCSV writes one row per report
func WriteCSV(w io.Writer, reports []models.CapacityReport) error {
	writer := csv.NewWriter(w)
	writer.Write([]string{
		"resource_id", "name", "team_id", "daily_hours", "work_days",
		"total_available_hours", "assigned_hours", "free_hours", "utilization_percent",
	})

	hours := func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }
	for _, r := range reports {
		writer.Write([]string{
			r.ResourceID,
			r.Name,
			r.TeamID,
			hours(r.DailyHours),
			strconv.Itoa(r.WorkDays),
			hours(r.TotalAvailableHours),
			hours(r.AssignedHours),
			hours(r.FreeHours),
			strconv.Itoa(r.UtilizationPercent),
		})
	}
	writer.Flush()
	return writer.Error()
}
