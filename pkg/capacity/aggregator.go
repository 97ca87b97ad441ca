package capacity

import (
	"math"
	"sort"
	"time"

	"github.com/arnavshah/capacity-planner-go/internal/workdays"
	"github.com/arnavshah/capacity-planner-go/pkg/models"
)

// workWeekDays is the number of business days a weekly capacity is spread over
const workWeekDays = 5

// Aggregate computes a capacity report per resource for the window
// [windowStart, windowEnd), ordered by free hours descending. Equal free
// hours keep the input order.
//
// The window start doubles as "today" when distributing each item, so a
// window planned for a future horizon treats its first day as the present.
func Aggregate(resources []models.Resource, windowStart, windowEnd time.Time) []models.CapacityReport {
	workDays := WindowWorkDays(windowStart, windowEnd)

	reports := make([]models.CapacityReport, 0, len(resources))
	for _, res := range resources {
		reports = append(reports, aggregateOne(res, workDays, windowStart, windowEnd))
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].FreeHours > reports[j].FreeHours
	})
	return reports
}

// WindowWorkDays returns the business days in [windowStart, windowEnd), at least 1
func WindowWorkDays(windowStart, windowEnd time.Time) int {
	n := workdays.CountInWindow(windowStart, windowEnd)
	if n < 1 {
		return 1
	}
	return n
}

func aggregateOne(res models.Resource, workDays int, windowStart, windowEnd time.Time) models.CapacityReport {
	dailyHours := (res.WeeklyHours * res.WorkloadPercent / 100) / workWeekDays
	totalAvailable := dailyHours * float64(workDays)

	var assigned float64
	var items []models.ItemLoad
	for _, item := range res.OpenItems {
		h := Distribute(item, windowStart, windowEnd, windowStart)
		if h == 0 {
			continue
		}
		assigned += h
		items = append(items, models.ItemLoad{
			ItemID: item.ID,
			Title:  item.Title,
			Hours:  Round1(h),
		})
	}

	free := math.Max(0, totalAvailable-assigned)

	utilization := 0
	if totalAvailable > 0 {
		utilization = int(math.Round(assigned / totalAvailable * 100))
	}

	return models.CapacityReport{
		ResourceID:          res.ID,
		Name:                res.Name,
		TeamID:              res.TeamID,
		DailyHours:          Round1(dailyHours),
		WorkDays:            workDays,
		TotalAvailableHours: Round1(totalAvailable),
		AssignedHours:       Round1(assigned),
		FreeHours:           Round1(free),
		UtilizationPercent:  utilization,
		Overloaded:          assigned > totalAvailable,
		Items:               items,
	}
}

// Round1 rounds an hour value to one decimal place for presentation
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
