package capacity

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/arnavshah/capacity-planner-go/pkg/models"
)

// Suggest places each unassigned item on the resource with the most free
// hours left that can absorb the item's share of the window. Items are taken
// earliest due date first. An item that fits nobody is reported as a conflict.
func Suggest(reports []models.CapacityReport, items []models.WorkItem, windowStart, windowEnd time.Time) models.Suggestion {
	free := make([]float64, len(reports))
	for i, r := range reports {
		free[i] = r.FreeHours
	}

	order := make([]models.WorkItem, len(items))
	copy(order, items)
	sort.SliceStable(order, func(i, j int) bool {
		return dueBefore(order[i], order[j])
	})

	out := models.Suggestion{
		Assignments: []models.Assignment{},
		Conflicts:   []models.Conflict{},
	}
	for _, it := range order {
		if it.EstimatedHours == nil || *it.EstimatedHours <= 0 || it.DueDate == nil {
			out.Conflicts = append(out.Conflicts, models.Conflict{
				ItemID:  it.ID,
				Reasons: []string{"item has no estimate or due date"},
			})
			continue
		}

		load := Distribute(it, windowStart, windowEnd, windowStart)

		best := -1
		short := 0
		for i := range reports {
			if free[i]+1e-9 < load {
				short++
				continue
			}
			if best < 0 || free[i] > free[best] {
				best = i
			}
		}

		if best < 0 {
			var reasons []string
			if short > 0 {
				reasons = append(reasons, fmt.Sprintf("%d resources had less than %.1f free hours", short, load))
			} else {
				reasons = append(reasons, "no resources available")
			}
			out.Conflicts = append(out.Conflicts, models.Conflict{ItemID: it.ID, Reasons: reasons})
			continue
		}

		free[best] = math.Max(0, free[best]-load)
		out.Assignments = append(out.Assignments, models.Assignment{
			ItemID:     it.ID,
			ResourceID: reports[best].ResourceID,
			Hours:      Round1(load),
		})
	}
	return out
}

// Apply returns copies of reports with the suggested hours added
func Apply(reports []models.CapacityReport, s models.Suggestion) []models.CapacityReport {
	idx := make(map[string]int, len(reports))
	out := make([]models.CapacityReport, len(reports))
	for i, r := range reports {
		out[i] = r
		idx[r.ResourceID] = i
	}

	for _, a := range s.Assignments {
		i, ok := idx[a.ResourceID]
		if !ok {
			continue
		}
		r := &out[i]
		r.AssignedHours = Round1(r.AssignedHours + a.Hours)
		r.FreeHours = Round1(math.Max(0, r.TotalAvailableHours-r.AssignedHours))
		r.Overloaded = r.AssignedHours > r.TotalAvailableHours
		if r.TotalAvailableHours > 0 {
			r.UtilizationPercent = int(math.Round(r.AssignedHours / r.TotalAvailableHours * 100))
		}
	}
	return out
}

func dueBefore(a, b models.WorkItem) bool {
	switch {
	case a.DueDate == nil:
		return false
	case b.DueDate == nil:
		return true
	}
	return a.DueDate.Before(*b.DueDate)
}
