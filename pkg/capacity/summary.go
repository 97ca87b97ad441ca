package capacity

import (
	"math"

	"github.com/arnavshah/capacity-planner-go/pkg/models"
)

// Summarize rolls per-resource reports up into team totals.
// Totals are summed from the presented (rounded) report values.
func Summarize(reports []models.CapacityReport) models.TeamSummary {
	s := models.TeamSummary{
		Resources:    len(reports),
		BalanceScore: BalanceScore(reports),
	}
	for _, r := range reports {
		s.TotalAvailableHours += r.TotalAvailableHours
		s.AssignedHours += r.AssignedHours
		s.FreeHours += r.FreeHours
		if r.Overloaded {
			s.Overloaded++
		}
	}
	if s.TotalAvailableHours > 0 {
		s.UtilizationPercent = int(math.Round(s.AssignedHours / s.TotalAvailableHours * 100))
	}
	s.TotalAvailableHours = Round1(s.TotalAvailableHours)
	s.AssignedHours = Round1(s.AssignedHours)
	s.FreeHours = Round1(s.FreeHours)
	return s
}

// BalanceScore returns a percentage (0-100) representing how evenly
// work is spread across the team. 100% means everyone is equally utilized
// (Standard Deviation of utilization = 0).
func BalanceScore(reports []models.CapacityReport) float64 {
	if len(reports) == 0 {
		return 100.0
	}

	var sum float64
	for _, r := range reports {
		sum += float64(r.UtilizationPercent)
	}

	if sum == 0 {
		return 100.0 // Nobody has work, which is perfectly even
	}

	mean := sum / float64(len(reports))

	var varianceSum float64
	for _, r := range reports {
		diff := float64(r.UtilizationPercent) - mean
		varianceSum += diff * diff
	}
	stdDev := math.Sqrt(varianceSum / float64(len(reports)))

	// 100% means SD is 0. 0% means SD is >= mean.
	score := (1.0 - (stdDev / mean)) * 100.0
	if score < 0 {
		return 0.0
	}
	return Round1(score)
}
