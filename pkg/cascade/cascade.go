package cascade

import (
	"context"
	"fmt"
	"time"

	"github.com/arnavshah/capacity-planner-go/internal/workdays"
	"github.com/arnavshah/capacity-planner-go/pkg/models"
)

// DependencyGraph looks up the items that directly depend on an item
type DependencyGraph interface {
	Dependents(ctx context.Context, id string) ([]models.ScheduledItem, error)
}

// Propagate shifts the due date of every item that transitively depends on
// rootID by daysDelta days and returns the shifts in traversal order.
//
// The root itself is not shifted. Each item is shifted at most once, so a
// cycle in the stored dependencies ends the traversal instead of looping.
func Propagate(ctx context.Context, rootID string, daysDelta int, g DependencyGraph) ([]models.DateShift, error) {
	visited := map[string]bool{rootID: true}
	var shifts []models.DateShift

	// Explicit stack; children are pushed in reverse so they pop in lookup order
	stack, err := pushDependents(ctx, g, nil, rootID, visited)
	if err != nil {
		return nil, err
	}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[item.ID] {
			continue
		}
		visited[item.ID] = true

		shifts = append(shifts, models.DateShift{
			ItemID:     item.ID,
			OldDueDate: item.DueDate,
			NewDueDate: workdays.AddDays(item.DueDate, daysDelta),
		})

		stack, err = pushDependents(ctx, g, stack, item.ID, visited)
		if err != nil {
			return nil, err
		}
	}

	return shifts, nil
}

func pushDependents(ctx context.Context, g DependencyGraph, stack []models.ScheduledItem, id string, visited map[string]bool) ([]models.ScheduledItem, error) {
	deps, err := g.Dependents(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding dependents of %s: %w", id, err)
	}
	for i := len(deps) - 1; i >= 0; i-- {
		if !visited[deps[i].ID] {
			stack = append(stack, deps[i])
		}
	}
	return stack, nil
}

// Delta returns the whole-day difference between a root's old and new due date
func Delta(oldDue, newDue time.Time) int {
	return workdays.DaysBetween(oldDue, newDue)
}
