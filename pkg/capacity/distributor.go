package capacity

import (
	"time"

	"github.com/arnavshah/capacity-planner-go/internal/workdays"
	"github.com/arnavshah/capacity-planner-go/pkg/models"
)

// Distribute returns how many of item's estimated hours fall inside the
// window [windowStart, windowEnd). Hours are spread evenly over the business
// days between the next workday on/after today and the due date.
//
// Items without a due date or a positive estimate contribute nothing.
// Overdue items, and items whose due date comes before the next workday,
// land entirely on the next workday.
func Distribute(item models.WorkItem, windowStart, windowEnd, today time.Time) float64 {
	if item.DueDate == nil || item.EstimatedHours == nil || *item.EstimatedHours <= 0 {
		return 0
	}
	hours := *item.EstimatedHours

	today = workdays.Day(today)
	due := workdays.Day(*item.DueDate)
	next := workdays.NextWorkday(today)

	// Late or no business day left before the due date
	if due.Before(today) || next.After(due) {
		if workdays.InWindow(next, windowStart, windowEnd) {
			return hours
		}
		return 0
	}

	totalWorkDays := workdays.CountBetween(next, due)
	if totalWorkDays < 1 {
		totalWorkDays = 1
	}
	hoursPerDay := hours / float64(totalWorkDays)

	periodWorkDays := overlapWorkDays(next, due, windowStart, windowEnd)
	return hoursPerDay * float64(periodWorkDays)
}

// overlapWorkDays counts business days inside both the closed span
// [spanStart, spanEnd] and the half-open window [windowStart, windowEnd).
func overlapWorkDays(spanStart, spanEnd, windowStart, windowEnd time.Time) int {
	from := workdays.Day(windowStart)
	if spanStart.After(from) {
		from = spanStart
	}
	to := workdays.Day(windowEnd).AddDate(0, 0, -1)
	if spanEnd.Before(to) {
		to = spanEnd
	}
	return workdays.CountBetween(from, to)
}
